package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

type LogStats struct {
	TransfersRecorded  int
	ProcessorFailures  int
	WebhooksReconciled int
	MembershipsGranted int
	InvalidSignatures  int
	MalformedPayloads  int
	UnknownTransfers   int
	AmountMismatches   int
	TotalErrors        int
	Processors         map[string]int
	UnknownTransferIDs map[string]int
	ErrorPatterns      map[string]int
}

var (
	processorRegex  = regexp.MustCompile(`Invalid (\w+) webhook signature|Received (\w+) webhook`)
	transferIDRegex = regexp.MustCompile(`transfer_id: (\S+)`)
	messageRegex    = regexp.MustCompile(`\.go:\d+: (.*)$`)
	digitsRegex     = regexp.MustCompile(`\d+`)
)

func main() {
	logDir := flag.String("dir", "./logs", "log directory")
	date := flag.String("date", time.Now().Format("2006-01-02"), "log date (YYYY-MM-DD)")
	flag.Parse()

	stats := &LogStats{
		Processors:         make(map[string]int),
		UnknownTransferIDs: make(map[string]int),
		ErrorPatterns:      make(map[string]int),
	}

	analyzeErrorLogs(filepath.Join(*logDir, fmt.Sprintf("error-%s.log", *date)), stats)
	analyzeInfoLogs(filepath.Join(*logDir, fmt.Sprintf("info-%s.log", *date)), stats)

	printReport(*date, stats)
}

func analyzeErrorLogs(logFile string, stats *LogStats) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		stats.TotalErrors++

		switch {
		case strings.Contains(line, "webhook signature"):
			stats.InvalidSignatures++
			countProcessor(line, stats)
		case strings.Contains(line, "webhook payload"):
			stats.MalformedPayloads++
		case strings.Contains(line, "Transaction not found for transfer_id"):
			stats.UnknownTransfers++
			if m := transferIDRegex.FindStringSubmatch(line); m != nil {
				stats.UnknownTransferIDs[m[1]]++
			}
		case strings.Contains(line, "transfer failed for order ID"):
			stats.ProcessorFailures++
		case strings.Contains(line, "transaction expects"):
			stats.AmountMismatches++
		}

		extractErrorPattern(line, stats)
	}
}

func analyzeInfoLogs(logFile string, stats *LogStats) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.Contains(line, "Recorded transfer"):
			stats.TransfersRecorded++
		case strings.Contains(line, "Reconciled transfer"):
			stats.WebhooksReconciled++
		case strings.Contains(line, "Extended membership for user ID"):
			stats.MembershipsGranted++
		case strings.Contains(line, "webhook: transfer_id="):
			countProcessor(line, stats)
		}
	}
}

func countProcessor(line string, stats *LogStats) {
	m := processorRegex.FindStringSubmatch(line)
	if m == nil {
		return
	}
	name := m[1]
	if name == "" {
		name = m[2]
	}
	stats.Processors[name]++
}

// extractErrorPattern groups error lines by message with numbers masked.
func extractErrorPattern(line string, stats *LogStats) {
	m := messageRegex.FindStringSubmatch(line)
	if m == nil {
		return
	}
	msg := m[1]
	if i := strings.Index(msg, ": "); i > 0 {
		msg = msg[:i]
	}
	stats.ErrorPatterns[digitsRegex.ReplaceAllString(msg, "N")]++
}

func printReport(date string, stats *LogStats) {
	fmt.Println("\n=== Payment Log Analysis Report ===")
	fmt.Println("Log date:", date)
	fmt.Println("Generated:", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Println("\n1. Transfers:")
	fmt.Printf("   Recorded: %d\n", stats.TransfersRecorded)
	fmt.Printf("   Processor failures: %d\n", stats.ProcessorFailures)

	fmt.Println("\n2. Webhooks:")
	fmt.Printf("   Reconciled: %d\n", stats.WebhooksReconciled)
	fmt.Printf("   Memberships granted: %d\n", stats.MembershipsGranted)
	fmt.Printf("   Unknown transfers: %d\n", stats.UnknownTransfers)
	fmt.Printf("   Amount mismatches: %d\n", stats.AmountMismatches)

	fmt.Println("\n3. Security Incidents:")
	fmt.Printf("   Invalid signatures: %d\n", stats.InvalidSignatures)
	fmt.Printf("   Malformed payloads: %d\n", stats.MalformedPayloads)

	fmt.Println("\n4. Deliveries by processor:")
	printTop(stats.Processors, 5, "deliveries")

	fmt.Println("\n5. Most frequent unknown transfers:")
	printTop(stats.UnknownTransferIDs, 5, "deliveries")

	fmt.Printf("\n6. Most Common Errors (%d total):\n", stats.TotalErrors)
	printTop(stats.ErrorPatterns, 5, "occurrences")
}

func printTop(counts map[string]int, limit int, unit string) {
	type entry struct {
		key   string
		count int
	}

	var entries []entry
	for key, count := range counts {
		entries = append(entries, entry{key, count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count == entries[j].count {
			return entries[i].key < entries[j].key
		}
		return entries[i].count > entries[j].count
	})

	for i, e := range entries {
		if i >= limit {
			break
		}
		fmt.Printf("   %s: %d %s\n", e.key, e.count, unit)
	}
}
