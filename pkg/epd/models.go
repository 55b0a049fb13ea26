// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package epd

import (
	"fmt"
	"sort"
)

// DisplayModel describes one supported panel. Values are immutable; the
// catalog hands out copies.
type DisplayModel struct {
	Key     string  // catalog key, e.g. "epd7in5b"
	Module  string  // driver family used by the wired path
	Name    string  // human readable name
	Width   int     // pixels
	Height  int     // pixels
	Palette Palette // index 0 is the ground (white) state, 1 the ink (black)
	ID      uint8   // selector sent in INIT
}

func (m DisplayModel) String() string {
	return fmt.Sprintf("%s (%dx%d)", m.Name, m.Width, m.Height)
}

// Resolution returns width and height.
func (m DisplayModel) Resolution() (int, int) {
	return m.Width, m.Height
}

// models is the read-only catalog. It is never mutated after init.
var models = map[string]DisplayModel{}

func register(key, module string, w, h int, p Palette, name string, id uint8) {
	models[key] = DisplayModel{Key: key, Module: module, Name: name, Width: w, Height: h, Palette: p, ID: id}
}

func init() {
	register("epd1in54", "epd1in54", 200, 200, PaletteBW, "1.54 inch e-Paper", 0)
	register("epd1in54b", "epd1in54b", 200, 200, PaletteBWR, "1.54 inch e-Paper (B)", 1)
	register("epd1in54c", "epd1in54c", 152, 152, PaletteBWY, "1.54 inch e-Paper (C)", 2)
	register("epd2in13", "epd2in13", 122, 250, PaletteBW, "2.13 inch e-Paper", 3)
	register("epd2in13b", "epd2in13bc", 104, 212, PaletteBWR, "2.13 inch e-Paper (B)", 4)
	register("epd2in13c", "epd2in13bc", 104, 212, PaletteBWY, "2.13 inch e-Paper (C)", 5)
	register("epd2in13d", "epd2in13d", 104, 212, PaletteBW, "2.13 inch e-Paper (D)", 6)
	register("epd2in7", "epd2in7", 176, 264, PaletteBW, "2.7 inch e-Paper", 7)
	register("epd2in7b", "epd2in7b", 176, 264, PaletteBWR, "2.7 inch e-Paper (B)", 8)
	register("epd2in9", "epd2in9", 128, 296, PaletteBW, "2.9 inch e-Paper", 9)
	register("epd2in9b", "epd2in9bc", 128, 296, PaletteBWR, "2.9 inch e-Paper (B)", 10)
	register("epd2in9c", "epd2in9bc", 128, 296, PaletteBWY, "2.9 inch e-Paper (C)", 11)
	register("epd2in9d", "epd2in9d", 128, 296, PaletteBW, "2.9 inch e-Paper (D)", 12)
	register("epd4in2", "epd4in2", 400, 300, PaletteBW, "4.2 inch e-Paper", 13)
	register("epd4in2b", "epd4in2bc", 400, 300, PaletteBWR, "4.2 inch e-Paper (B)", 14)
	register("epd4in2c", "epd4in2bc", 400, 300, PaletteBWY, "4.2 inch e-Paper (C)", 15)
	register("epd5in83", "epd5in83", 600, 448, PaletteBW, "5.83 inch e-Paper", 16)
	register("epd5in83b", "epd5in83bc", 600, 448, PaletteBWR, "5.83 inch e-Paper (B)", 17)
	register("epd5in83c", "epd5in83bc", 600, 448, PaletteBWY, "5.83 inch e-Paper (C)", 18)
	register("epd7in5", "epd7in5", 640, 384, PaletteBW, "7.5 inch e-Paper", 19)
	register("epd7in5b", "epd7in5bc", 640, 384, PaletteBWR, "7.5 inch e-Paper (B)", 20)
	register("epd7in5c", "epd7in5bc", 640, 384, PaletteBWY, "7.5 inch e-Paper (C)", 21)
	register("epd7in5_V2", "epd7in5_V2", 800, 480, PaletteBW, "7.5 inch e-Paper V2", 22)
	register("epd7in5b_V2", "epd7in5b_V2", 800, 480, PaletteBWR, "7.5 inch e-Paper (B) V2", 23)
	register("epd7in5b_HD", "epd7in5b_HD", 880, 528, PaletteBWR, "7.5 inch HD e-Paper (B)", 24)
	register("epd5in65f", "epd5in65f", 600, 448, Palette7Color, "5.65 inch e-Paper (F)", 25)
	register("epd7in5_HD", "epd7in5_HD", 880, 528, PaletteBW, "7.5 inch HD e-Paper", 26)
	register("epd3in7", "epd3in7", 280, 480, PaletteBW, "3.7 inch e-Paper", 27)
	register("epd2in66", "epd2in66", 152, 296, PaletteBW, "2.66 inch e-Paper", 28)
	register("epd5in83b_V2", "epd5in83b_V2", 648, 480, PaletteBWR, "5.83 inch e-Paper (B) V2", 29)
	register("epd2in9b_V3", "epd2in9b_V3", 128, 296, PaletteBWR, "2.9 inch e-Paper (B) V3", 30)
	register("epd1in54b_V2", "epd1in54b_V2", 200, 200, PaletteBWR, "1.54 inch e-Paper (B) V2", 31)
	register("epd2in13b_V3", "epd2in13b_V3", 104, 214, PaletteBWR, "2.13 inch e-Paper (B) V3", 32)
	register("epd2in9_V2", "epd2in9_V2", 128, 296, PaletteBW, "2.9 inch e-Paper V2", 33)
	register("epd4in2b_V2", "epd4in2b_V2", 400, 300, PaletteBWR, "4.2 inch e-Paper (B) V2", 34)
	register("epd2in66b", "epd2in66b", 152, 296, PaletteBWR, "2.66 inch e-Paper (B)", 35)
	register("epd5in83_V2", "epd5in83_V2", 648, 480, PaletteBW, "5.83 inch e-Paper V2", 36)
	register("epd4in01f", "epd4in01f", 640, 400, Palette7Color, "4.01 inch e-Paper (F)", 37)
	register("epd2in7b_V2", "epd2in7b_V2", 176, 264, PaletteBWR, "2.7 inch e-Paper (B) V2", 38)
	register("epd2in13_V3", "epd2in13_V3", 122, 250, PaletteBW, "2.13 inch e-Paper V3", 39)
	register("epd2in13b_V4", "epd2in13b_V4", 122, 250, PaletteBWR, "2.13 inch e-Paper (B) V4", 40)
	register("epd3in52", "epd3in52", 240, 360, PaletteBW, "3.52 inch e-Paper", 41)
	register("epd2in7_V2", "epd2in7_V2", 176, 264, PaletteBW, "2.7 inch e-Paper V2", 42)
}

// LookupModel returns the catalog entry for key.
func LookupModel(key string) (DisplayModel, error) {
	m, ok := models[key]
	if !ok {
		return DisplayModel{}, &ConfigurationError{Field: "model", Value: key, Reason: "model is not supported"}
	}
	m.Palette = append(Palette(nil), m.Palette...)
	return m, nil
}

// Models returns all catalog entries ordered by id.
func Models() []DisplayModel {
	out := make([]DisplayModel, 0, len(models))
	for _, m := range models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
