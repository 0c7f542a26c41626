package main

import (
	"fmt"
	"image"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"pikac/pkg/asm"
	"pikac/pkg/codegen"
	"pikac/pkg/compiler"
	"pikac/pkg/grid"
	"pikac/pkg/utils"
	"pikac/pkg/vm"
)

const (
	cols = 80
	rows = 40

	charWidth  = grid.CellWidth
	charHeight = grid.CellHeight

	stepsPerFrame = 10000
	scrollback    = 1000
)

type Game struct {
	code   []asm.Instruction
	vm     *vm.Machine
	screen *grid.Screen
	scroll int
	status string

	frame   *image.RGBA
	textImg *ebiten.Image // reused text canvas
}

func newGame(code []asm.Instruction) (*Game, error) {
	g := &Game{code: code, screen: grid.NewScreen(cols, scrollback)}
	if err := g.restart(); err != nil {
		return nil, err
	}
	return g, nil
}

// restart reloads the program into a fresh machine and clears the output.
func (g *Game) restart() error {
	cfg := vm.DefaultConfig()
	cfg.Output = g.screen
	m, err := vm.New(g.code, cfg)
	if err != nil {
		return err
	}
	g.screen.Reset()
	g.vm = m
	g.scroll = 0
	g.status = "running"
	return nil
}

// step runs one frame's slice of the program.
func (g *Game) step() {
	if g.vm.Halted {
		return
	}
	if err := g.vm.RunFor(stepsPerFrame); err != nil {
		fmt.Fprintf(g.screen, "\nrun failed: %v\n", err)
		g.vm.Halted = true
	}
	if g.vm.Halted {
		g.status = fmt.Sprintf("halted after %d steps - Enter restarts", g.vm.Steps)
	}
}

func (g *Game) scrollBy(n int) {
	g.scroll = max(g.scroll+n, 0)
	if limit := len(g.screen.Lines()) - (rows - 1); g.scroll > limit {
		g.scroll = max(limit, 0)
	}
}

// cells flattens the visible output into a cols-wide grid. The last row is
// left for the status line.
func (g *Game) cells() []rune {
	out := make([]rune, cols*(rows-1))
	for y, line := range g.screen.Window(rows-1, g.scroll) {
		for x, r := range []rune(line) {
			out[y*cols+x] = r
		}
	}
	return out
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		if err := g.restart(); err != nil {
			return err
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageUp) {
		g.scrollBy(rows / 2)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageDown) {
		g.scrollBy(-rows / 2)
	}
	g.step()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.textImg == nil {
		g.frame = image.NewRGBA(image.Rect(0, 0, cols*charWidth, (rows-1)*charHeight))
		g.textImg = ebiten.NewImage(cols*charWidth, (rows-1)*charHeight)
	}
	grid.Rasterize(g.frame, g.cells(), cols)
	g.textImg.WritePixels(g.frame.Pix)
	screen.DrawImage(g.textImg, nil)

	status := g.status
	if g.scroll > 0 {
		status += fmt.Sprintf(" [scrolled %d]", g.scroll)
	}
	ebitenutil.DebugPrintAt(screen, status, 0, (rows-1)*charHeight)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cols * charWidth, rows * charHeight
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <program.pika> [--show-asm]", os.Args[0])
	}
	filename := os.Args[1]
	showAsm := false
	for _, arg := range os.Args[2:] {
		showAsm = showAsm || arg == "--show-asm"
	}

	fullPath, _, err := utils.GetPathInfo(filename)
	if err != nil {
		log.Fatalf("Bad path: %v", err)
	}
	sourceBytes, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	res, err := compiler.Compile(string(sourceBytes), codegen.Options{Comments: showAsm})
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}
	if showAsm {
		fmt.Print("Generated Assembly:\n", asm.Format(res.Code), "\n")
	}

	game, err := newGame(res.Code)
	if err != nil {
		log.Fatalf("Load failed: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cols*charWidth, rows*charHeight)
	ebiten.SetWindowTitle("Pika Desktop - " + filename)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
