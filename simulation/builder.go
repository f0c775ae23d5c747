package simulation

import (
	"log"

	"github.com/rs/xid"
	"github.com/sarchlab/dmsim/datarecording"
	"github.com/sarchlab/dmsim/monitoring"
	"github.com/sarchlab/dmsim/sim"
	"github.com/sarchlab/dmsim/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	engine         sim.Engine
	traceOn        bool
	outputFileName string
	dataRecorder   datarecording.DataRecorder
	monitorOn      bool
	monitorPort    int
}

// MakeBuilder creates a new builder. By default the simulation neither
// traces nor serves a monitor.
func MakeBuilder() Builder {
	return Builder{}
}

// WithEngine uses an existing engine instead of a new serial engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithTracing records the tasks of every registered component into a trace
// database.
func (b Builder) WithTracing() Builder {
	b.traceOn = true
	return b
}

// WithOutputFileName sets the name of the trace database, without the
// .sqlite3 suffix.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithDataRecorder traces into an existing recorder, such as one that
// datarecording.NewFromDSN opens, instead of a new SQLite database.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.traceOn = true
	b.dataRecorder = r

	return b
}

// WithMonitoring serves the monitor. A zero port picks a random one.
func (b Builder) WithMonitoring(port int) Builder {
	b.monitorOn = true
	b.monitorPort = port

	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.traceOn && b.outputFileName != "" {
		log.Panic("output file name cannot be set when tracing is disabled")
	}

	if b.dataRecorder != nil && b.outputFileName != "" {
		log.Panic("output file name cannot be set with a data recorder")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:            xid.New().String(),
		engine:        b.engine,
		compNameIndex: make(map[string]int),
		portNameIndex: make(map[string]int),
	}

	if s.engine == nil {
		s.engine = sim.NewSerialEngine()
	}

	if b.traceOn {
		s.dataRecorder = b.dataRecorder
		if s.dataRecorder == nil {
			outputPath := b.outputFileName
			if outputPath == "" {
				outputPath = "dmsim_" + s.id
			}

			s.dataRecorder = datarecording.New(outputPath)
		}

		s.execRecorder = datarecording.NewExecRecorder(s.dataRecorder)
		s.execRecorder.Start()
		s.tracer = tracing.NewDBTracer(s.engine, s.dataRecorder)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		s.monitor.RegisterEngine(s.engine)
	}

	return s
}
