package graph

import (
	"fmt"
	"sort"
	"strings"
)

// WriteDOT renders g as a Graphviz DOT digraph: one record-shaped node per
// graph node with its sockets as record fields, and one edge per wire. It is a diagnostics-only
// feature, not part of the persisted document format, grounded on the DOT
// exporter in milan-zededa-eve/libs/depgraph/depgraph_dot.go.
func WriteDOT(g *Graph) string {
	var sb strings.Builder
	sb.WriteString("digraph G {\n")
	sb.WriteString("\trankdir=LR;\n")
	sb.WriteString("\tnode [shape=record];\n")

	nodes := g.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	for _, n := range nodes {
		inputs, outputs := g.NodeSockets(n.ID)
		sb.WriteString(fmt.Sprintf("\t%s [label=\"{{%s}|%s|{%s}}\"];\n",
			dotEscapeID(string(n.ID)),
			dotFieldList(inputs),
			dotEscape(n.Type),
			dotFieldList(outputs),
		))
	}

	wires := g.Wires()
	sort.Slice(wires, func(i, j int) bool { return wires[i].ID < wires[j].ID })
	for _, w := range wires {
		from, ok := g.Socket(w.FromSocketID)
		if !ok {
			continue
		}
		to, ok := g.Socket(w.ToSocketID)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("\t%s -> %s [label=\"%s\"];\n",
			dotEscapeID(string(from.NodeID)),
			dotEscapeID(string(to.NodeID)),
			dotEscape(string(to.DataType)),
		))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func dotFieldList(sockets []Socket) string {
	names := make([]string, len(sockets))
	for i, s := range sockets {
		names[i] = fmt.Sprintf("<%s> %s", dotEscape(string(s.ID)), dotEscape(s.Name))
	}
	return strings.Join(names, "|")
}

func dotEscapeID(id string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(id)
}

func dotEscape(s string) string {
	return strings.NewReplacer(`"`, `\"`, "{", `\{`, "}", `\}`, "|", `\|`).Replace(s)
}
