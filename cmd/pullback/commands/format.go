package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/pullback/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a titled block with key/value lines.
func PrintHeader(title string, kv [][2]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	for _, pair := range kv {
		PrintKeyValue(pair[0], pair[1], 12)
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

var rankingColumns = []string{"#", "Ticker", "Score", "Beta", "Hist %", "Recent %", "Mean %", "Stdev %"}
var rankingWidths = []int{4, 8, 8, 7, 8, 9, 7, 7}

// PrintRanking prints ranked records as a table.
func PrintRanking(records []contracts.MetricRecord) {
	PrintTableHeader(rankingColumns, rankingWidths)
	for _, rec := range records {
		PrintTableRow([]string{
			strconv.Itoa(rec.Rank),
			rec.Ticker,
			fmt.Sprintf("%.3f", rec.Score),
			fmt.Sprintf("%.3f", rec.Beta),
			fmt.Sprintf("%.2f", rec.HistoricalReturn),
			fmt.Sprintf("%.2f", rec.RecentReturn),
			fmt.Sprintf("%.3f", rec.Mean),
			fmt.Sprintf("%.3f", rec.Stdev),
		}, rankingWidths)
	}
}

// reasonCounts groups exclusion reasons, e.g. "insufficient_history: 12".
func reasonCounts(reasons map[string]string) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, ticker := range sortedKeys(reasons) {
		reason := reasons[ticker]
		if _, seen := counts[reason]; !seen {
			order = append(order, reason)
		}
		counts[reason]++
	}

	out := make([]string, 0, len(order))
	for _, reason := range order {
		out = append(out, fmt.Sprintf("%s: %d", reason, counts[reason]))
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
