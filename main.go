// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"

	"github.com/cpmech/gosl/utl"
)

// lizzy is the thin CLI surface over model.Model (spec.md §6): `lizzy` prints
// the banner and usage, `lizzy info` prints a dependency report. Running an
// actual case is driven by the scripting surface, not this binary, which is
// why there is no simulation-file argument here the way the teacher's main.go
// took one.
func main() {
	defer func() {
		if err := recover(); err != nil {
			utl.PfRed("ERROR: %v\n", err)
			os.Exit(1)
		}
	}()

	banner()

	flag.Parse()
	if len(flag.Args()) == 0 {
		usage()
		return
	}

	switch flag.Arg(0) {
	case "info":
		info()
	default:
		utl.PfRed("unknown command %q\n", flag.Arg(0))
		usage()
		os.Exit(1)
	}
}

func banner() {
	utl.PfWhite("\nLizzy -- isothermal resin-infusion FE/CV simulation engine\n\n")
	utl.Pf("Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.\n")
	utl.Pf("Use of this source code is governed by a BSD-style\n")
	utl.Pf("license that can be found in the LICENSE file.\n\n")
}

func usage() {
	utl.Pf("usage:\n")
	utl.Pf("  lizzy            show this banner and usage\n")
	utl.Pf("  lizzy info       print a dependency report\n")
}

func info() {
	utl.Pf("engine:         github.com/lizzyfem/lizzy\n")
	utl.Pf("linear algebra: github.com/cpmech/gosl/la\n")
	utl.Pf("dense solver:   gonum.org/v1/gonum/mat\n")
	utl.Pf("error kit:      github.com/cpmech/gosl/chk\n")
	utl.Pf("mesh input:     external MSH v4 reader (not part of this module)\n")
	utl.Pf("results output: external XDMF+HDF5 writer (not part of this module)\n")
}
