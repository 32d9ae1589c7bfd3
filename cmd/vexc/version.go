package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"vexc/internal/target"
	"vexc/internal/version"
)

// buildInfo is the link-time metadata after trimming. Display is the
// colorized rendering of Version for terminal output.
type buildInfo struct {
	Version    string
	Display    string
	GitCommit  string
	GitMessage string
	BuildDate  string
}

// targetRow is one hardware generation in the supported-targets listing.
type targetRow struct {
	CPU     string `json:"cpu"`
	ISA     string `json:"visa"`
	GRF     int    `json:"grf"`
	SIMD    int    `json:"simd"`
	Default bool   `json:"default,omitempty"`

	major, minor int
}

type versionPayload struct {
	Tool       string      `json:"tool"`
	Version    string      `json:"version"`
	ISARange   string      `json:"visa_range"`
	GitCommit  string      `json:"git_commit,omitempty"`
	GitMessage string      `json:"git_message,omitempty"`
	BuildDate  string      `json:"build_date,omitempty"`
	Targets    []targetRow `json:"targets,omitempty"`
}

var (
	versionFormat      string
	versionShowTargets bool
)

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().BoolVar(&versionShowTargets, "targets", false, "list the supported CPU generations")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the driver version and supported targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := collectBuildInfo()
		rows := supportedTargets()
		switch strings.ToLower(versionFormat) {
		case "json":
			return renderVersionJSON(cmd.OutOrStdout(), info, rows, versionShowTargets)
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout(), info, rows, versionShowTargets)
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}

func collectBuildInfo() buildInfo {
	v := strings.TrimSpace(version.Version)
	display := version.Colorized()
	if v == "" {
		v, display = "dev", "dev"
	}
	return buildInfo{
		Version:    v,
		Display:    display,
		GitCommit:  strings.TrimSpace(version.GitCommit),
		GitMessage: strings.TrimSpace(version.GitMessage),
		BuildDate:  strings.TrimSpace(version.BuildDate),
	}
}

// supportedTargets reads the CPU table and returns it sorted by vISA
// version, oldest first.
func supportedTargets() []targetRow {
	target.Initialize()
	t := target.Lookup("genx64")
	rows := make([]targetRow, 0, len(t.CPUs))
	for _, cpu := range t.CPUs {
		rows = append(rows, targetRow{
			CPU:     cpu.Name,
			ISA:     fmt.Sprintf("%d.%d", cpu.ISAMajor, cpu.ISAMinor),
			GRF:     cpu.GRFCount,
			SIMD:    cpu.DefaultSIMD,
			Default: cpu.Name == t.DefaultCPU,
			major:   int(cpu.ISAMajor),
			minor:   int(cpu.ISAMinor),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].major != rows[j].major {
			return rows[i].major < rows[j].major
		}
		if rows[i].minor != rows[j].minor {
			return rows[i].minor < rows[j].minor
		}
		return rows[i].CPU < rows[j].CPU
	})
	return rows
}

func isaRange(rows []targetRow) string {
	if len(rows) == 0 {
		return "none"
	}
	lo, hi := rows[0].ISA, rows[len(rows)-1].ISA
	if lo == hi {
		return lo
	}
	return lo + " through " + hi
}

func renderVersionPretty(out io.Writer, info buildInfo, rows []targetRow, showTargets bool) {
	fmt.Fprintf(out, "vexc %s\n", info.Display)
	fmt.Fprintf(out, "vISA %s\n", isaRange(rows))
	if info.GitCommit != "" {
		fmt.Fprintf(out, "commit: %s\n", info.GitCommit)
	}
	if info.GitMessage != "" {
		fmt.Fprintf(out, "message: %s\n", info.GitMessage)
	}
	if info.BuildDate != "" {
		fmt.Fprintf(out, "built: %s\n", info.BuildDate)
	}
	if showTargets {
		fmt.Fprintln(out)
		for _, row := range rows {
			marker := " "
			if row.Default {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-6s vISA %-4s %d GRF, SIMD%d\n", marker, row.CPU, row.ISA, row.GRF, row.SIMD)
		}
	}
}

func renderVersionJSON(out io.Writer, info buildInfo, rows []targetRow, showTargets bool) error {
	payload := versionPayload{
		Tool:       "vexc",
		Version:    info.Version,
		ISARange:   isaRange(rows),
		GitCommit:  info.GitCommit,
		GitMessage: info.GitMessage,
		BuildDate:  info.BuildDate,
	}
	if showTargets {
		payload.Targets = rows
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
