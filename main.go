package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions carries the parsed command-line flags
type AppOptions struct {
	ConfigFile string
	MeasureIn  string
	RoomType   string
	HttpPort   int
	MqttMode   bool
	HttpMode   bool
	WriteTo    string
}

// Runner is the part of App that main drives.
type Runner interface {
	ApplyOptions(opts AppOptions)
	RunMeasure(w io.Writer) error
	RunService()
	WriteConfig(path string) error
}

func main() {
	if err := run(os.Args[1:], os.Stdout, NewApp()); err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, app Runner) error {
	fs := flag.NewFlagSet("roomwalk", flag.ContinueOnError)
	fs.SetOutput(out)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", "config.yaml", "Path to configuration file")
	fs.StringVar(&opts.MeasureIn, "measure", "", "Replay a capture JSON file and print its measurement")
	fs.StringVar(&opts.RoomType, "room-type", "", "Room type label for --measure (overrides the capture)")
	fs.BoolVar(&opts.MqttMode, "mqtt", false, "Run MQTT service mode for live capture devices")
	fs.BoolVar(&opts.HttpMode, "http", false, "Enable HTTP server for sessions and measurements")
	fs.IntVar(&opts.HttpPort, "http-port", 0, "HTTP server port (default from config, else 8080)")
	fs.StringVar(&opts.WriteTo, "write-config", "", "Write the effective configuration (defaults filled in) to this path")

	if err := fs.Parse(args); err != nil {
		return err
	}
	// --http-port implies --http
	if opts.HttpPort != 0 {
		opts.HttpMode = true
	}

	fmt.Fprintf(out, "roomwalk version: %s\n", Version)
	app.ApplyOptions(opts)

	switch {
	case opts.WriteTo != "":
		return app.WriteConfig(opts.WriteTo)
	case opts.MeasureIn != "":
		return app.RunMeasure(out)
	case opts.MqttMode || opts.HttpMode:
		app.RunService()
		return nil
	}

	fmt.Fprintln(out, "Use --measure=capture.json to replay a recorded walk")
	fmt.Fprintln(out, "Use --mqtt to run MQTT service mode")
	fmt.Fprintln(out, "Use --http to run HTTP server mode")
	fmt.Fprintln(out, "Use --mqtt --http to run both MQTT and HTTP together")
	fmt.Fprintln(out, "Use --write-config=config.yaml to write a config with every default filled in")
	fmt.Fprintln(out, "\nConfiguration:")
	fmt.Fprintln(out, "  config.yaml - MQTT settings, devices and measurement tolerances")
	return nil
}
