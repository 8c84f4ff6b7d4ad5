package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/memsim/datarecording"
	"github.com/sarchlab/memsim/memory"
	"github.com/sarchlab/memsim/monitoring"
	"github.com/sarchlab/memsim/replacement"
	"github.com/sarchlab/memsim/simulation"
	"github.com/sarchlab/memsim/tracing"
	"github.com/sarchlab/memsim/translation"
	"github.com/sarchlab/memsim/vm"
)

func run(cfg *config, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, cfg.debug)

	addrs, err := readReferenceFile(cfg.refFile)
	if err != nil {
		return err
	}

	log2PageSize := vm.Log2(uint64(cfg.pageSize))
	decoder := vm.NewAddressDecoder(log2PageSize, numPages)

	refs, err := vm.DecodeReferences(decoder, addrs)
	if err != nil {
		return err
	}

	store, err := memory.OpenFileBackingStore(cfg.backingStore, cfg.pageSize)
	if err != nil {
		return fmt.Errorf("opening backing store %s: %w", cfg.backingStore, err)
	}
	defer store.Close()

	engine := translation.MakeBuilder().
		WithLog2PageSize(log2PageSize).
		WithNumPages(numPages).
		WithNumFrames(cfg.frames).
		WithNumTLBEntries(cfg.tlbEntries).
		WithBackingStore(store).
		WithVictimFinder(replacement.New(cfg.pra, refs)).
		WithLogger(logger).
		Build("Engine")

	sim := simulation.New(engine, addrs, stdout, simulation.Options{
		DumpPage:       cfg.dumpPage,
		CheckCoherence: cfg.check,
		Logger:         logger,
	})

	if cfg.trace {
		tracer := tracing.NewCSVTracer(cfg.traceFile)
		if err := tracer.Init(); err != nil {
			return err
		}
		defer tracer.Close()

		tracing.CollectTrace(engine, tracer)
		tracing.CollectTrace(engine.TLB(), tracer)

		logger.Info("tracing", "file", tracer.Path())
	}

	if cfg.record {
		recorder := datarecording.New(cfg.recordFile)
		defer recorder.Close()

		exec := datarecording.NewExecRecorder(recorder)
		exec.Start()
		cfg.describe(exec.Record)
		defer exec.End()

		dbTracer := tracing.NewDBTracer(recorder)
		tracing.CollectTrace(engine, dbTracer)
		sim.RegisterFinisher(dbTracer)
	}

	if cfg.monitor {
		bar, err := startMonitor(cfg, sim, len(addrs))
		if err != nil {
			return err
		}

		tracing.CollectTrace(engine, bar)
		sim.RegisterFinisher(bar)
	}

	cfg.describe(func(property, value string) {
		logger.Debug("configuration", "property", property, "value", value)
	})

	_, err = sim.Run()

	return err
}

func startMonitor(
	cfg *config,
	sim *simulation.Simulation,
	numAddrs int,
) (*monitoring.ProgressBar, error) {
	m := monitoring.NewMonitor().WithPortNumber(cfg.monitorPort)
	if cfg.openBrowser {
		m.WithOpenBrowser()
	}

	engine := sim.Engine()

	m.RegisterSimulation(sim)
	m.RegisterComponent(engine.Name(), engine)
	m.RegisterComponent(engine.TLB().Name(), engine.TLB())
	m.RegisterComponent(engine.VictimFinder().Name(), engine.VictimFinder())

	bar := m.CreateProgressBar("Translation", uint64(numAddrs))

	if _, err := m.StartServer(); err != nil {
		return nil, err
	}

	return bar, nil
}

func readReferenceFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, configError("reference file", path, err.Error())
	}
	defer f.Close()

	return simulation.ReadReferences(f)
}
