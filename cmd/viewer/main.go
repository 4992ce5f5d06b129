// Command viewer renders the live annotation stream of a running eagleeye
// process: configured obstacles and the poses the planner explored, drawn
// in the map frame.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/spf13/cobra"
	"golang.org/x/image/colornames"

	"github.com/derweg/eagleeye/vehicle/telemetry"
)

const (
	screenWidth  = 1280
	screenHeight = 720
	pixelsPerM   = 40.0
	markerCap    = 2000
)

var addr string

var rootCmd = &cobra.Command{
	Use:   "viewer",
	Short: "Live map view of a running eagleeye process",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := newViewer()
		go v.stream(cmd.Context(), "ws://"+addr+"/ws")

		ebiten.SetWindowSize(screenWidth, screenHeight)
		ebiten.SetWindowTitle("eagleeye viewer")
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
		return ebiten.RunGame(v)
	},
}

func main() {
	rootCmd.Flags().StringVar(&addr, "addr", "localhost:8642", "telemetry address of the eagleeye process")
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// viewer implements ebiten.Game. The websocket goroutine fills the stores;
// Draw reads them under the mutex.
type viewer struct {
	mu        sync.Mutex
	obstacles map[[2]float64]telemetry.Annotation
	markers   []telemetry.Annotation
	next      int
	connected bool
}

func newViewer() *viewer {
	return &viewer{
		obstacles: make(map[[2]float64]telemetry.Annotation),
		markers:   make([]telemetry.Annotation, 0, markerCap),
	}
}

// stream keeps a websocket subscription alive until ctx is cancelled,
// reconnecting with a flat backoff.
func (v *viewer) stream(ctx context.Context, url string) {
	log := slog.With("component", "viewer")
	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			log.Warn("dial failed, retrying", "url", url, "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
			continue
		}

		v.setConnected(true)
		log.Info("connected", "url", url)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				log.Warn("connection lost", "err", err)
				break
			}
			var a telemetry.Annotation
			if err := json.Unmarshal(payload, &a); err != nil {
				continue
			}
			v.add(a)
		}
		conn.Close()
		v.setConnected(false)
	}
}

func (v *viewer) setConnected(ok bool) {
	v.mu.Lock()
	v.connected = ok
	v.mu.Unlock()
}

func (v *viewer) add(a telemetry.Annotation) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch a.Kind {
	case "obstacle":
		v.obstacles[[2]float64{a.X, a.Y}] = a
	case "marker":
		// ring buffer, newest overwrites oldest
		if len(v.markers) < markerCap {
			v.markers = append(v.markers, a)
		} else {
			v.markers[v.next] = a
			v.next = (v.next + 1) % markerCap
		}
	}
}

func (v *viewer) Update() error { return nil }

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{18, 18, 24, 255})
	v.drawGrid(screen)

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, m := range v.markers {
		x, y := worldToScreen(m.X, m.Y)
		vector.DrawFilledCircle(screen, x, y, 2, colornames.Skyblue, true)
	}
	for _, o := range v.obstacles {
		x, y := worldToScreen(o.X, o.Y)
		vector.StrokeCircle(screen, x, y, float32(o.R*pixelsPerM), 2, colornames.Orangered, true)
	}

	status := "connecting…"
	if v.connected {
		status = fmt.Sprintf("obstacles %d, poses %d", len(v.obstacles), len(v.markers))
	}
	ebitenutil.DebugPrint(screen, status)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// drawGrid strokes one line per metre in the map frame.
func (v *viewer) drawGrid(screen *ebiten.Image) {
	gridColor := color.RGBA{40, 40, 50, 255}
	for x := float32(0); x < screenWidth; x += pixelsPerM {
		vector.StrokeLine(screen, x, 0, x, screenHeight, 1, gridColor, false)
	}
	for y := float32(0); y < screenHeight; y += pixelsPerM {
		vector.StrokeLine(screen, 0, y, screenWidth, y, 1, gridColor, false)
	}
}

// worldToScreen maps map-frame metres to pixels: origin at the screen
// centre, y axis flipped.
func worldToScreen(x, y float64) (float32, float32) {
	return float32(screenWidth/2 + x*pixelsPerM), float32(screenHeight/2 - y*pixelsPerM)
}
