// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List supported display models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		printModels(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func printModels(w io.Writer) {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("MODEL", "NAME", "RESOLUTION", "PALETTE", "ID").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	for _, m := range epd.Models() {
		t.Row(m.Key, m.Name, fmt.Sprintf("%dx%d", m.Width, m.Height), m.Palette.String(), strconv.Itoa(int(m.ID)))
	}
	fmt.Fprintln(w, t)
}
