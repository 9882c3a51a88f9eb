package ui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

var (
	inputColor  = rl.Color{R: 100, G: 150, B: 255, A: 255}
	outputColor = rl.Color{R: 255, G: 180, B: 100, A: 255}
	hiddenColor = rl.Color{R: 180, G: 180, B: 180, A: 255}
)

// DrawBrainGraph draws a genome's network: sensors on the left, the output on
// the right and hidden nodes in between. Link color shows the weight sign.
func DrawBrainGraph(x, y, width, height int32, genome *genetics.Genome) {
	rl.DrawRectangle(x, y, width, height, DefaultTheme.Panel)
	rl.DrawRectangleLines(x, y, width, height, DefaultTheme.Border)

	if genome == nil {
		return
	}

	var inputNodes, outputNodes, hiddenNodes []*network.NNode
	for _, node := range genome.Nodes {
		switch node.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			inputNodes = append(inputNodes, node)
		case network.OutputNeuron:
			outputNodes = append(outputNodes, node)
		case network.HiddenNeuron:
			hiddenNodes = append(hiddenNodes, node)
		}
	}

	positions := make(map[int]rl.Vector2)
	padding := float32(12)
	inner := float32(height) - padding*2

	column := func(nodes []*network.NNode, cx float32) {
		spacing := inner / float32(max(len(nodes), 1))
		for i, node := range nodes {
			positions[node.Id] = rl.Vector2{
				X: cx,
				Y: float32(y) + padding + float32(i)*spacing + spacing/2,
			}
		}
	}
	column(inputNodes, float32(x)+padding)
	column(outputNodes, float32(x+width)-padding)

	// Hidden nodes in columns of six
	if len(hiddenNodes) > 0 {
		cols := (len(hiddenNodes) + 5) / 6
		colWidth := (float32(width) - padding*4) / float32(cols+1)
		for i, node := range hiddenNodes {
			col, row := i/6, i%6
			positions[node.Id] = rl.Vector2{
				X: float32(x) + padding*2 + colWidth*float32(col+1),
				Y: float32(y) + padding + float32(row)*inner/6 + inner/12,
			}
		}
	}

	for _, gene := range genome.Genes {
		if !gene.IsEnabled || gene.Link == nil {
			continue
		}
		in, ok1 := positions[gene.Link.InNode.Id]
		out, ok2 := positions[gene.Link.OutNode.Id]
		if !ok1 || !ok2 {
			continue
		}

		weight := gene.Link.ConnectionWeight
		alpha := uint8(min(255, int(math.Abs(weight)*60)+60))
		color := rl.Color{R: 200, G: 100, B: 100, A: alpha}
		if weight > 0 {
			color = rl.Color{R: 100, G: 200, B: 100, A: alpha}
		}
		rl.DrawLineV(in, out, color)
	}

	const radius = 4
	for _, node := range inputNodes {
		rl.DrawCircleV(positions[node.Id], radius, inputColor)
	}
	for _, node := range outputNodes {
		rl.DrawCircleV(positions[node.Id], radius, outputColor)
	}
	for _, node := range hiddenNodes {
		rl.DrawCircleV(positions[node.Id], radius, hiddenColor)
	}
}
