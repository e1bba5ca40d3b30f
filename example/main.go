// FILE: lixenwraith/bridge/example/main.go
package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/bridge"
	"github.com/lixenwraith/bridge/logging"
)

// Example bridge.toml:
/*
time_zone = "Europe/Paris"
inbound_types = "dates, files, data"
match_timeout = "250ms"

[files]
work_dir = "/srv/scripts"
*/

func main() {
	logger := logging.NewLogger(logging.LoggerConfig{Level: "info", Format: "text"}, os.Stderr)

	live, err := bridge.NewBuilder().
		WithFile("bridge.toml").
		WithEnvPrefix("BRIDGE_").
		WithLogger(logger).
		BuildLive(bridge.WatchOptions{
			PollInterval:      500 * time.Millisecond,
			Debounce:          200 * time.Millisecond,
			MaxWatchers:       10,
			ReloadTimeout:     2 * time.Second,
			VerifyPermissions: true,
		})
	if err != nil && !errors.Is(err, bridge.ErrConfigNotFound) {
		log.Fatal("failed to build engine: ", err)
	}
	defer live.Stop()

	changes := live.Changes()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sample := bridge.Mapping(
		bridge.Field("due", bridge.Date(bridge.CalendarDate{Year: 2024, Month: time.March, Day: 1, Hour: 9})),
		bridge.Field("path", bridge.Text("Macintosh HD:Users:Shared:report.txt")),
		bridge.Field("tags", bridge.Sequence(bridge.Text("q1"), bridge.Data("rdat", "CAFE"))),
	)
	show(live.Engine(), sample)

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			log.Println("shutting down")
			return

		case event, ok := <-changes:
			if !ok {
				return
			}
			switch event {
			case bridge.EventFileDeleted:
				log.Println("settings file was deleted")
			case bridge.EventPermissionsChanged:
				log.Println("settings file permissions changed, reload refused")
			case bridge.EventReloadTimeout:
				log.Println("settings reload timed out")
			default:
				log.Printf("setting changed: %s", event)
				show(live.Engine(), sample)
			}

		case <-ticker.C:
			show(live.Engine(), sample)
		}
	}
}

func show(engine *bridge.Engine, v bridge.Value) {
	in, err := engine.ConvertInbound(v, "")
	if err != nil {
		log.Printf("conversion failed: %v", err)
		return
	}
	log.Printf("zone %s: %s", engine.Location(), in)
}
