package figure

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/banshee-data/cr39.report/internal/fsutil"
	"github.com/banshee-data/cr39.report/internal/monitoring"
)

const (
	titleHeight   = 0.8 * vg.Inch
	colorBarWidth = 0.9 * vg.Inch
	figureRows    = 2
	figureColumns = 3
)

// Suptitle is the figure title naming the simulated setup and the number of
// events analysed.
func Suptitle(total int) string {
	return fmt.Sprintf("Geant4 simulation: 2.5 MeV protons, 3 cm beam-to-detector distance\n"+
		"CR-39 detector (ρ = 1.31 g/cm³, 0.5 mm), N_events = %s", humanize.Comma(int64(total)))
}

// Figure is the six-panel layout, drawn row-major on a 2×3 grid below the
// title.
type Figure struct {
	Title  string
	Style  Style
	Panels []*Panel
}

// Draw renders the figure onto c. A panel that panics while drawing is
// logged and left blank; its name is returned.
func (f *Figure) Draw(c draw.Canvas) (failed []string) {
	height := c.Max.Y - c.Min.Y

	head := plot.New()
	head.Title.Text = f.Title
	f.Style.font(&head.Title.TextStyle.Font, f.Style.SuptitleSize)
	head.HideAxes()
	head.Draw(draw.Crop(c, 0, 0, height-titleHeight, 0))

	body := draw.Crop(c, 0, 0, 0, -titleHeight)
	tiles := draw.Tiles{
		Rows:      figureRows,
		Cols:      figureColumns,
		PadX:      vg.Points(18),
		PadY:      vg.Points(18),
		PadLeft:   vg.Points(6),
		PadRight:  vg.Points(6),
		PadBottom: vg.Points(6),
	}
	for i, p := range f.Panels {
		if i >= figureRows*figureColumns {
			break
		}
		cell := tiles.At(body, i%figureColumns, i/figureColumns)
		if !drawPanel(cell, p) {
			failed = append(failed, p.Name)
		}
	}
	return failed
}

func drawPanel(c draw.Canvas, p *Panel) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Stagef("renderer", "panel %s failed to draw: %v", p.Name, r)
			ok = false
		}
	}()

	if p.ColorBar == nil {
		p.Plot.Draw(c)
		return true
	}
	width := c.Max.X - c.Min.X
	p.Plot.Draw(draw.Crop(c, 0, -colorBarWidth, 0, 0))
	p.ColorBar.Draw(draw.Crop(c, width-colorBarWidth, 0, 0, 0))
	return true
}

// Save writes <base>.pdf and <base>.png into dir, creating dir if needed.
// The PNG is rasterised at the style's DPI.
func (f *Figure) Save(fsys fsutil.FileSystem, dir, base string) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	w, h := f.Style.Width, f.Style.Height

	pdf := vgpdf.New(w, h)
	f.Draw(draw.New(pdf))
	pdfPath := filepath.Join(dir, base+".pdf")
	if err := writeArtifact(fsys, pdfPath, pdf); err != nil {
		return nil, err
	}

	img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(f.Style.DPI))
	if failed := f.Draw(draw.New(img)); len(failed) > 0 {
		monitoring.Stagef("renderer", "%d panel(s) left blank: %v", len(failed), failed)
	}
	pngPath := filepath.Join(dir, base+".png")
	if err := writeArtifact(fsys, pngPath, vgimg.PngCanvas{Canvas: img}); err != nil {
		return nil, err
	}

	monitoring.Stagef("renderer", "wrote %s and %s", pdfPath, pngPath)
	return []string{pdfPath, pngPath}, nil
}

func writeArtifact(fsys fsutil.FileSystem, path string, src io.WriterTo) (err error) {
	out, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if _, err := src.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
