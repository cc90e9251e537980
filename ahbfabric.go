// This file is part of AHBFabric.
//
// AHBFabric is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AHBFabric is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AHBFabric.  If not, see <https://www.gnu.org/licenses/>.


package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jetsetilly/ahbfabric/govern"
	"github.com/jetsetilly/ahbfabric/hardware/ahb/trace"
	"github.com/jetsetilly/ahbfabric/hardware/soc"
	"github.com/jetsetilly/ahbfabric/logger"
	"github.com/jetsetilly/ahbfabric/macro"
	"github.com/jetsetilly/ahbfabric/modalflag"
	"github.com/jetsetilly/ahbfabric/paths"
	"github.com/jetsetilly/ahbfabric/performance"
	"github.com/jetsetilly/ahbfabric/performance/limiter"
	"github.com/jetsetilly/ahbfabric/prefs"
	"github.com/jetsetilly/ahbfabric/statsview"
	"github.com/jetsetilly/ahbfabric/version"
)

// exit values
const (
	exitOK        = 0
	exitArguments = 10
	exitMode      = 20
)

func main() {
	// #ctrlc
	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)

	done := make(chan int)
	go func() {
		done <- launch(os.Args[1:], os.Stdout)
	}()

	select {
	case <-intChan:
		fmt.Println("\r")
		os.Exit(exitOK)
	case v := <-done:
		os.Exit(v)
	}
}

// the options that apply to every mode
type options struct {
	prefsFile   string
	prefsValues string
	trace       bool
}

func launch(args []string, output io.Writer) int {
	md := &modalflag.Modes{Output: output}
	md.NewArgs(args)
	md.AddSubModes("RUN", "SCRIPT", "PERFORMANCE", "DUMP", "VERSION")

	var opts options
	prefsFile := md.AddString("prefsfile", "", "preferences file. the default is in the configuration directory")
	prefsValues := md.AddString("prefs", "", "preference values (key::value; key::value). these take priority over the preferences file")
	traceBus := md.AddBool("trace", false, "echo the bus trace to the terminal")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return exitOK
	case modalflag.ParseError:
		fmt.Fprintf(output, "* error: %v\n", err)
		return exitArguments
	}

	opts.prefsFile = *prefsFile
	opts.prefsValues = *prefsValues
	opts.trace = *traceBus

	switch md.Mode() {
	case "RUN":
		err = run(md, opts)
	case "SCRIPT":
		err = script(md, opts)
	case "PERFORMANCE":
		err = perform(md, opts)
	case "DUMP":
		err = dump(md, opts)
	case "VERSION":
		err = showVersion(md)
	}

	if err != nil {
		fmt.Fprintf(output, "* error in %s mode: %v\n", md, err)
		return exitMode
	}

	return exitOK
}

// create the SoC from the preferences file and the command line
func newSoC(output io.Writer, opts options) (*soc.SoC, error) {
	prefs.PushCommandLineStack(opts.prefsValues)
	p, err := soc.NewPreferences(opts.prefsFile)
	unused := prefs.PopCommandLineStack()
	if err != nil {
		return nil, err
	}
	if unused != "" {
		fmt.Fprintf(output, "* unused preferences: %s\n", unused)
	}

	if opts.trace {
		trace.Bus.Set(true)
		logger.SetEcho(logger.NewColorizer(output))
	}

	return soc.NewSoC(p)
}

func run(md *modalflag.Modes, opts options) error {
	md.NewMode()
	md.AdditionalHelp("The masters of the SoC are kept busy with a synthetic workload.")

	cycles := md.AddInt("cycles", 1000, "number of cycles to run")
	rate := md.AddInt("rate", 0, "maximum number of cycles per second. zero for no limit")
	describe := md.AddBool("describe", false, "describe the state of the SoC at the end of the run")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}
	if len(md.RemainingArgs()) > 0 {
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	s, err := newSoC(md.Output, opts)
	if err != nil {
		return err
	}

	var lim *limiter.Limiter
	if *rate > 0 {
		lim, err = limiter.NewLimiter(*rate)
		if err != nil {
			return err
		}
		defer lim.End()
	}

	wl := performance.NewWorkload(s)
	if err := wl.Refill(); err != nil {
		return err
	}

	n := 0
	err = s.Run(func() (govern.State, error) {
		n++
		if n >= *cycles {
			return govern.Ending, nil
		}
		if lim != nil {
			lim.Wait()
		}
		return govern.Running, wl.Refill()
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(md.Output, "%d cycles, %d transfers\n", s.Cycle(), wl.Transfers())
	if *describe {
		fmt.Fprint(md.Output, s.Describe())
	}

	return nil
}

func script(md *modalflag.Modes, opts options) error {
	md.NewMode()

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	switch len(md.RemainingArgs()) {
	case 0:
		return fmt.Errorf("script file required for %s mode", md)
	case 1:
		s, err := newSoC(md.Output, opts)
		if err != nil {
			return err
		}
		mcr, err := macro.NewMacro(md.GetArg(0), s, md.Output)
		if err != nil {
			return err
		}
		return mcr.Run()
	}

	return fmt.Errorf("too many arguments for %s mode", md)
}

func perform(md *modalflag.Modes, opts options) error {
	md.NewMode()

	duration := md.AddString("duration", "5s", "run duration (note: there is a lead time of up to 2s)")
	profile := md.AddString("profile", "none", "create profiling reports: cpu, mem, trace, all")
	stats := md.AddBool("statsview", false, "launch the statsview server (only with the statsview build tag)")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}
	if len(md.RemainingArgs()) > 0 {
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	prf, err := performance.ParseProfileString(*profile)
	if err != nil {
		return err
	}

	if *stats {
		if !statsview.Available() {
			return fmt.Errorf("statsview not available in this build")
		}
		statsview.Launch(md.Output)
	}

	s, err := newSoC(md.Output, opts)
	if err != nil {
		return err
	}

	return performance.Check(md.Output, prf, s, *duration)
}

func dump(md *modalflag.Modes, opts options) error {
	md.NewMode()

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	var fn string
	switch len(md.RemainingArgs()) {
	case 0:
		fn = fmt.Sprintf("%s.dot", paths.UniqueFilename("topology", ""))
	case 1:
		fn = md.GetArg(0)
	default:
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	s, err := newSoC(md.Output, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	s.Dump(f)
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(md.Output, "topology written to %s\n", fn)
	return nil
}

func showVersion(md *modalflag.Modes) error {
	md.NewMode()
	revision := md.AddBool("revision", false, "display revision information")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	v, r, _ := version.Version()
	fmt.Fprintf(md.Output, "%s %s\n", version.ApplicationName, v)
	if *revision {
		fmt.Fprintln(md.Output, r)
	}
	return nil
}
