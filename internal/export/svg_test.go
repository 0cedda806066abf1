package export

import (
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/wavestring/internal/viz"
	"github.com/san-kum/wavestring/internal/wave"
)

func wellFormed(t *testing.T, svg string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			t.Fatalf("svg is not well formed: %v\n%s", err, svg)
		}
	}
}

func TestFieldToSVG(t *testing.T) {
	field := wave.Field{{Ux: 0, Ut: 0}, {Ux: 1, Ut: -1}, {Ux: 0, Ut: 0}}
	views := viz.Views{
		Ux: viz.CurveView{Visible: true, Color: "#ff0000"},
		Ut: viz.CurveView{Visible: true, Color: "#00ff00"},
	}

	svg := FieldToSVG(field, 2, 480, 480, views)
	wellFormed(t, svg)

	if strings.Count(svg, "<path") != 2 {
		t.Errorf("expected 2 paths, got %d", strings.Count(svg, "<path"))
	}
	// ux = 1 on L = 2 reaches the top edge at the middle sample.
	if !strings.Contains(svg, `d="M0.00,240.00 L240.00,0.00 L480.00,240.00"`) {
		t.Errorf("unexpected ux path:\n%s", svg)
	}
	if !strings.Contains(svg, "L240.00,480.00") {
		t.Errorf("ut = -1 should reach the bottom edge:\n%s", svg)
	}
}

func TestFieldToSVGHidden(t *testing.T) {
	field := wave.Field{{}, {}}
	svg := FieldToSVG(field, 1, 100, 100, viz.Views{})
	wellFormed(t, svg)
	if strings.Contains(svg, "<path") {
		t.Error("hidden curves should not produce paths")
	}
}

func TestFieldToSVGNonFinite(t *testing.T) {
	field := wave.Field{{Ux: math.Inf(1)}, {Ut: math.NaN()}}
	svg := FieldToSVG(field, 1, 100, 100, viz.Views{Ux: viz.CurveView{Visible: true, Color: "#fff"}})
	if strings.Contains(svg, "Inf") || strings.Contains(svg, "NaN") {
		t.Errorf("non-finite coordinates leaked into svg:\n%s", svg)
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	svg := CanvasToSVG(c, 2, "#00ff00")
	wellFormed(t, svg)
	if strings.Count(svg, "<circle") != 2 {
		t.Errorf("expected 2 dots, got %d", strings.Count(svg, "<circle"))
	}
	if CanvasToSVG(nil, 1, "#fff") != "" {
		t.Error("nil canvas should give empty output")
	}
}

func TestTrajectoryToSVG(t *testing.T) {
	svg := TrajectoryToSVG([]float64{0, 1, 0, -1}, []float64{1, 0, -1, 0}, 200, 200, "#ffffff")
	wellFormed(t, svg)
	if !strings.Contains(svg, `stroke="#ffffff"`) {
		t.Error("stroke color missing")
	}
	if TrajectoryToSVG([]float64{1}, []float64{1}, 10, 10, "#fff") != "" {
		t.Error("single point should give empty output")
	}
}
