package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/brummer10/StompTuner/internal/audio"
	"github.com/brummer10/StompTuner/internal/cli"
	"github.com/brummer10/StompTuner/internal/note"
	"github.com/brummer10/StompTuner/internal/pitch"
	"github.com/brummer10/StompTuner/internal/plugin"
	"github.com/brummer10/StompTuner/internal/ui"
)

// minBlockSize is the smallest processing block the feed loops will
// run with; anything below it burns scheduler time for no accuracy.
const minBlockSize = 32

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "0.1.0")
var version = "dev"

// CLI defines the command-line interface
type CLI struct {
	Version   bool    `short:"v" help:"Show version information"`
	Debug     bool    `short:"d" help:"Enable debug logging to stomptuner-debug.log"`
	RefFreq   float64 `help:"Reference frequency for A4 in Hz" default:"440"`
	FastNotes bool    `help:"Faster, less stable note detection"`
	Threshold float64 `help:"Signal gate threshold in dB below full scale" default:"-60"`
	BlockSize int     `help:"Frames per processing block" default:"256"`
	File      string  `arg:"" name:"file" help:"WAV file to tune against instead of the microphone" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	kong.Parse(cliArgs,
		kong.Name("stomptuner"),
		kong.Description("Guitar tuner stomp box"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	logger := newLogger(cliArgs.Debug)

	if cliArgs.BlockSize < minBlockSize || cliArgs.BlockSize > pitch.FFTSize {
		clamped := min(max(cliArgs.BlockSize, minBlockSize), pitch.FFTSize)
		cli.PrintWarning(fmt.Sprintf("block size %d outside [%d, %d], using %d",
			cliArgs.BlockSize, minBlockSize, pitch.FFTSize, clamped))
		cliArgs.BlockSize = clamped
	}
	if ref := plugin.Info(plugin.ParamRefFreq); cliArgs.RefFreq < float64(ref.Min) || cliArgs.RefFreq > float64(ref.Max) {
		clamped := min(max(cliArgs.RefFreq, float64(ref.Min)), float64(ref.Max))
		cli.PrintWarning(fmt.Sprintf("reference frequency %g Hz outside [%g, %g], using %g",
			cliArgs.RefFreq, ref.Min, ref.Max, clamped))
		cliArgs.RefFreq = clamped
	}

	plug := plugin.New()
	defer plug.Close()
	plug.SetParameterValue(plugin.ParamRefFreq, float32(cliArgs.RefFreq))
	plug.Tracker().SetThreshold(note.DBToPower(cliArgs.Threshold))
	if cliArgs.FastNotes {
		plug.Tracker().SetFastNoteDetection(true)
	}

	var err error
	if cliArgs.File != "" {
		err = runFile(cliArgs, plug, logger)
	} else {
		err = runLive(cliArgs, plug, logger)
	}
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	printLastReading(plug)
}

// printLastReading leaves the final detected note on the terminal
// after the TUI closes.
func printLastReading(plug *plugin.Plugin) {
	freq := plug.GetParameterValue(plugin.ParamFreq)
	if freq <= 0 {
		return
	}
	ref := float64(plug.GetParameterValue(plugin.ParamRefFreq))
	if name, octave, cents, ok := note.Nearest(float64(freq), ref); ok {
		cli.PrintInfo("Last reading", fmt.Sprintf("%s%d  %.1f Hz  %+.0f¢", name, octave, freq, cents))
	}
}

// newLogger routes debug output to a file so it never fights the TUI
// for the terminal.
func newLogger(debug bool) *log.Logger {
	if !debug {
		return log.New(io.Discard)
	}
	f, err := os.Create("stomptuner-debug.log")
	if err != nil {
		return log.New(io.Discard)
	}
	logger := log.New(f)
	logger.SetLevel(log.DebugLevel)
	return logger
}

// runLive tunes against the default input device.
func runLive(cliArgs *CLI, plug *plugin.Plugin, logger *log.Logger) error {
	out := make([]float32, cliArgs.BlockSize)
	capture, err := audio.NewCapture(cliArgs.BlockSize, func(in []float32) {
		plug.Process(in, out)
	})
	if err != nil {
		return err
	}
	defer capture.Close()

	logger.Debug("opened input device", "rate", capture.SampleRate(), "block", cliArgs.BlockSize)
	if err := plug.Init(capture.SampleRate()); err != nil {
		return fmt.Errorf("tuner init failed: %w", err)
	}
	if err := capture.Start(); err != nil {
		return err
	}

	prog := tea.NewProgram(ui.NewModel(plug, "live input"), tea.WithAltScreen())
	_, err = prog.Run()
	return err
}

// runFile streams a WAV file through the tuner at real-time pace.
func runFile(cliArgs *CLI, plug *plugin.Plugin, logger *log.Logger) error {
	reader, meta, err := audio.OpenAudioFile(cliArgs.File)
	if err != nil {
		return err
	}
	defer reader.Close()

	logger.Debug("opened file", "path", cliArgs.File, "rate", meta.SampleRate,
		"channels", meta.Channels, "duration", meta.Duration)
	if err := plug.Init(float64(meta.SampleRate)); err != nil {
		return fmt.Errorf("tuner init failed: %w", err)
	}

	prog := tea.NewProgram(ui.NewModel(plug, cliArgs.File), tea.WithAltScreen())

	quit := make(chan struct{})
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		in := make([]float32, cliArgs.BlockSize)
		out := make([]float32, cliArgs.BlockSize)
		blockTime := time.Duration(float64(cliArgs.BlockSize) / float64(meta.SampleRate) * float64(time.Second))
		for {
			select {
			case <-quit:
				return
			default:
			}
			n, err := reader.ReadBlock(in)
			if errors.Is(err, io.EOF) {
				prog.Send(ui.InputDoneMsg{})
				return
			}
			if err != nil {
				logger.Error("read failed", "err", err)
				prog.Send(ui.InputErrorMsg{Err: err})
				return
			}
			plug.Process(in[:n], out[:n])
			time.Sleep(blockTime)
		}
	}()

	_, err = prog.Run()
	close(quit)
	<-feedDone
	return err
}
