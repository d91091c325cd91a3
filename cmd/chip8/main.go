// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/chip8/audio"
	"github.com/ezrec/chip8/config"
	"github.com/ezrec/chip8/console"
	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/video"
)

func main() {
	var compile string
	var save bool
	var output string
	var listing bool
	var terminal bool
	var verbose bool
	var configFile string
	var seed uint64
	var cycles int

	flag.StringVar(&compile, "c", "", "Assembly source file to compile")
	flag.BoolVar(&save, "s", false, "Save ROM to output, do not execute")
	flag.StringVar(&output, "o", "-", "ROM output")
	flag.BoolVar(&listing, "l", false, "Print program listing, do not execute")
	flag.BoolVar(&terminal, "t", false, "Run in the terminal")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&configFile, "config", "", "TOML configuration file")
	flag.Uint64Var(&seed, "seed", 0, "Random seed (0 for system randomness)")
	flag.IntVar(&cycles, "cycles", emulator.CYCLES_PER_FRAME, "Instructions per frame")

	flag.Parse()

	log := logrus.StandardLogger()

	cfg := config.Default()
	if len(configFile) != 0 {
		var err error
		cfg, err = config.LoadFile(configFile)
		if err != nil {
			log.Fatalf("%v: %v", configFile, err)
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "seed":
			cfg.Seed = seed
		case "cycles":
			cfg.CyclesPerFrame = cycles
		case "v":
			cfg.Trace = verbose
		}
	})
	err := cfg.Validate()
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	if cfg.Trace {
		log.SetLevel(logrus.DebugLevel)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = cfg.Trace
	emu.CyclesPerFrame = cfg.CyclesPerFrame
	emu.Cpu.Log = log
	if cfg.Seed != 0 {
		emu.Cpu.Random = cpu.NewSeededRandom(cfg.Seed)
	}

	title := "CHIP-8"
	switch {
	case len(compile) != 0:
		if flag.NArg() != 0 {
			log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
		}
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		title += " - " + filepath.Base(compile)
	case flag.NArg() == 1:
		rom := flag.Arg(0)
		inf, err := os.Open(rom)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		defer inf.Close()

		err = emu.Load(inf)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		title += " - " + filepath.Base(rom)
	default:
		log.Fatalf("%v: Expected a ROM file, or -c source", os.Args[0])
	}

	if listing {
		for _, op := range emu.Program.Opcodes {
			fmt.Printf("%4d %v\n", op.LineNo, op.String())
		}
		return
	}

	if save {
		ouf := os.Stdout
		if output != "-" {
			ouf, err = os.Create(output)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			defer ouf.Close()
		}
		_, err = ouf.Write(emu.Rom())
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	if terminal {
		con, err := console.NewConsole(emu, cfg)
		if err != nil {
			log.Fatalf("%v: %v", os.Args[0], err)
		}
		err = con.Run()
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	game, err := video.NewGame(emu, cfg)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	beeper, err := audio.NewBeeper(cfg.SampleRate, cfg.BeepHz)
	if err != nil {
		log.WithError(err).Warn("chip8: continuing with the terminal bell")
		game.Speaker = &audio.Bell{}
	} else {
		game.Speaker = beeper
	}
	defer game.Speaker.Close()

	err = game.Run(title)
	if err != nil {
		log.Fatal(err)
	}
}
