// Autopilot follows a live performance against an uploaded reference recording and
// serves the aligned position, the waveform and the input scope over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/peragwin/autopilot/align/otw"
	"github.com/peragwin/autopilot/audio"
	"github.com/peragwin/autopilot/config"
	"github.com/peragwin/autopilot/control"
	"github.com/peragwin/autopilot/gfx/scope"
	"github.com/peragwin/autopilot/gfx/waveform"
	"github.com/peragwin/autopilot/session"
)

var (
	configPath  = flag.String("config", "", "path to a YAML config file")
	addr        = flag.String("addr", "", "http listen address, overrides server.addr")
	listDevices = flag.Bool("list-devices", false, "print the audio devices and exit")
	reference   = flag.String("reference", "", "wav file to load at startup")
	annotations = flag.String("annotations", "", "annotation file to load at startup")
	snapshot    = flag.String("snapshot", "", "render the waveform of -reference into this png and exit")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if *listDevices {
		if err := audio.ListDevices(os.Stdout); err != nil {
			glog.Exit(err)
		}
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			glog.Exit(err)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *reference != "" {
		cfg.Reference = *reference
	}
	if *annotations != "" {
		cfg.Annotations = *annotations
	}

	if err := run(cfg); err != nil {
		glog.Exit(err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	palette, err := cfg.Render.Palette()
	if err != nil {
		return err
	}
	layers := waveform.NewLayers(waveform.NewRenderer(
		cfg.Render.Width, cfg.Render.Height, cfg.Render.WindowSize, palette))

	if *snapshot != "" {
		return writeSnapshot(cfg, layers, *snapshot)
	}

	sc := scope.New(cfg.Render.ScopeWidth, cfg.Render.ScopeHeight, palette)
	metrics := control.NewMetrics()
	sess, err := session.Open(
		session.WithEngine(otw.New(cfg.Align)),
		session.WithSink(sc),
		session.WithObserver(metrics),
		session.WithParams(cfg.Session),
	)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := loadStartup(cfg, sess); err != nil {
		return err
	}

	src, err := audio.NewAnalyser(ctx, &cfg.Audio)
	if err != nil {
		return err
	}
	// the session closes src
	if err := sess.Start(src); err != nil {
		src.Close()
		return err
	}

	// keep the waveform layers current between requests
	render := session.Repeat(session.SystemClock, cfg.Session.PlaybackPeriod, func() {
		v := sess.View()
		layers.Update(&v)
	})
	defer render.Stop()

	srv, err := control.NewServer(sess, layers,
		control.WithScope(sc),
		control.WithMetrics(metrics),
		control.WithStatic(cfg.Server.StaticDir),
		control.WithUploadDir(cfg.Server.UploadDir),
	)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func loadStartup(cfg *config.Config, sess *session.Session) error {
	if cfg.Annotations != "" {
		f, err := os.Open(cfg.Annotations)
		if err != nil {
			return err
		}
		err = sess.UploadAnnotations(f)
		f.Close()
		if err != nil {
			return err
		}
	}
	if cfg.Reference != "" {
		if _, err := sess.UploadReference([]string{cfg.Reference}); err != nil {
			return err
		}
	}
	return nil
}

func writeSnapshot(cfg *config.Config, layers *waveform.Layers, path string) error {
	if cfg.Reference == "" {
		return fmt.Errorf("-snapshot needs a reference")
	}
	sess, err := session.Open(
		session.WithEngine(otw.New(cfg.Align)),
		session.WithParams(cfg.Session),
	)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := loadStartup(cfg, sess); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	v := sess.View()
	layers.Update(&v)
	if err := layers.WritePNG(f); err != nil {
		return err
	}
	glog.Infof("waveform of %s written to %s", v.Name, path)
	return nil
}
