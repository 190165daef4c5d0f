package report

import (
	"fmt"
	"strings"
)

// GenerateOutcomePie creates a Mermaid pie chart of decision outcomes.
func GenerateOutcomePie(counts map[Outcome]int) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("pie showData\n")
	sb.WriteString("    title Decision outcomes\n")
	for _, o := range Outcomes {
		if counts[o] == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %q : %d\n", string(o), counts[o]))
	}
	sb.WriteString("```\n")

	return sb.String()
}

// GenerateRoamingFlow creates a Mermaid flowchart of access point changes.
// Repeated moves between the same pair collapse into one labelled edge.
func GenerateRoamingFlow(transitions []Transition) string {
	if len(transitions) == 0 {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("flowchart LR\n")

	labels := make(map[string]string)
	var order []string
	type edge struct{ from, to string }
	edges := make(map[edge]int)
	var edgeOrder []edge

	node := func(bssid, ssid string) string {
		id := bssidToNodeID(bssid)
		if _, ok := labels[id]; !ok {
			label := bssid
			if ssid != "" {
				label = fmt.Sprintf("%s\\n%s", ssid, bssid)
			}
			labels[id] = label
			order = append(order, id)
		}
		return id
	}

	for _, t := range transitions {
		e := edge{node(t.FromBSSID, t.FromSSID), node(t.ToBSSID, t.ToSSID)}
		if edges[e] == 0 {
			edgeOrder = append(edgeOrder, e)
		}
		edges[e]++
	}

	for _, id := range order {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, labels[id]))
	}
	sb.WriteString("\n")
	for _, e := range edgeOrder {
		if n := edges[e]; n > 1 {
			sb.WriteString(fmt.Sprintf("    %s -->|%dx| %s\n", e.from, n, e.to))
		} else {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", e.from, e.to))
		}
	}
	sb.WriteString("```\n")

	return sb.String()
}

func bssidToNodeID(bssid string) string {
	// Mermaid node IDs cannot contain ':'
	r := strings.NewReplacer(":", "", "-", "", ".", "")
	return "AP" + strings.ToUpper(r.Replace(bssid))
}
