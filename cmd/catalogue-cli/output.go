package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"catalogue/pkg/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerColor = lipgloss.Color("#8BE9FD")
	borderColor = lipgloss.Color("#44475A")
	mutedColor  = lipgloss.Color("#6272A4")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(headerColor).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// writeJSONLines writes one JSON document per item.
func writeJSONLines[T any](out io.Writer, items []T) error {
	encoder := json.NewEncoder(out)
	for _, item := range items {
		if err := encoder.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func printDatasets(out io.Writer, datasets []models.Dataset) error {
	if jsonOutput {
		return writeJSONLines(out, datasets)
	}
	if len(datasets) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("no datasets registered"))
		return err
	}

	t := newTable("DATASET", "OWNER", "MS HOST", "VOLUME", "GATEWAY", "USERNAME", "KEY", "DESCRIPTION")
	for _, ds := range datasets {
		t.Row(
			ds.ID,
			ds.Owner,
			ds.MetadataServiceHost,
			ds.Volume,
			ds.Gateway,
			ds.GatewayUsername,
			keySummary(ds.GatewayPrivateKey),
			ds.Description,
		)
	}

	_, err := fmt.Fprintln(out, t.Render())
	return err
}

func keySummary(key string) string {
	if key == "" {
		return "-"
	}
	return strconv.Itoa(len(key)) + " bytes"
}

func printCDNs(out io.Writer, bindings []models.CDNBinding) error {
	if jsonOutput {
		return writeJSONLines(out, bindings)
	}
	if len(bindings) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("no cdn bindings registered"))
		return err
	}

	t := newTable("DATASET", "ORIGIN", "SITE", "LOCATION", "PREFIX")
	for _, binding := range bindings {
		if len(binding.Sites) == 0 {
			t.Row(binding.DatasetID, binding.OriginURL, "-", "-", "-")
			continue
		}
		for i, site := range binding.Sites {
			dataset, origin := binding.DatasetID, binding.OriginURL
			if i > 0 {
				dataset, origin = "", ""
			}
			t.Row(dataset, origin, site.Name, formatLocation(site), site.URLPrefix)
		}
	}

	_, err := fmt.Fprintln(out, t.Render())
	return err
}

func formatLocation(site models.CDNSite) string {
	return fmt.Sprintf("%.4f, %.4f", site.Latitude, site.Longitude)
}

func printStatus(out io.Writer, status map[string]string) error {
	if jsonOutput {
		return json.NewEncoder(out).Encode(status)
	}

	keys := make([]string, 0, len(status))
	for key := range status {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	t := newTable("KEY", "VALUE")
	for _, key := range keys {
		t.Row(key, status[key])
	}

	_, err := fmt.Fprintln(out, t.Render())
	return err
}
