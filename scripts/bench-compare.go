//go:build ignore

// Package main compares two 'go test -bench' outputs and fails on regressions.
// Usage: go run scripts/bench-compare.go [-threshold 0.2] <current.txt> <baseline.txt>
//
// A benchmark regresses when its ns/op or allocs/op grows by more than the
// threshold. Benchmarks present in only one file are listed but never fail.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
)

var (
	threshold = flag.Float64("threshold", 0.20, "Allowed slowdown before failing (0.0-1.0)")
	noFail    = flag.Bool("no-fail", false, "Report regressions without exiting 1")
)

// BenchmarkName-8   1234   5678 ns/op   [910 B/op]   [11 allocs/op]
var benchLine = regexp.MustCompile(`^(Benchmark\S+?)(?:-\d+)?\s+\d+\s+([\d.]+) ns/op(?:\s+\d+ B/op)?(?:\s+(\d+) allocs/op)?`)

type measurement struct {
	nsPerOp float64
	allocs  float64
}

func main() {
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <current.txt> <baseline.txt>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	current, err := parse(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	baseline, err := parse(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", flag.Arg(1), err)
		os.Exit(1)
	}

	names := make([]string, 0, len(current)+len(baseline))
	for name := range current {
		names = append(names, name)
	}
	for name := range baseline {
		if _, ok := current[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BENCHMARK\tCURRENT\tBASELINE\tTIME\tALLOCS\tSTATUS")
	regressions := 0
	for _, name := range names {
		cur, inCur := current[name]
		base, inBase := baseline[name]
		switch {
		case !inBase:
			fmt.Fprintf(tw, "%s\t%.0f ns\t-\t-\t-\tnew\n", name, cur.nsPerOp)
			continue
		case !inCur:
			fmt.Fprintf(tw, "%s\t-\t%.0f ns\t-\t-\tmissing\n", name, base.nsPerOp)
			continue
		}

		dt, da := delta(cur.nsPerOp, base.nsPerOp), delta(cur.allocs, base.allocs)
		status := "ok"
		switch {
		case dt > *threshold || da > *threshold:
			status = "REGRESSED"
			regressions++
		case dt < -0.10:
			status = "faster"
		}
		fmt.Fprintf(tw, "%s\t%.0f ns\t%.0f ns\t%+.1f%%\t%+.1f%%\t%s\n",
			name, cur.nsPerOp, base.nsPerOp, dt*100, da*100, status)
	}
	_ = tw.Flush()

	fmt.Println()
	if regressions > 0 {
		fmt.Printf("%d benchmark(s) regressed by more than %.0f%%\n", regressions, *threshold*100)
		if !*noFail {
			os.Exit(1)
		}
		return
	}
	fmt.Println("No regressions.")
}

// parse reads benchmark lines, averaging repeated runs (-count).
func parse(path string) (map[string]measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sums := make(map[string]measurement)
	runs := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := benchLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		ns, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		var allocs float64
		if m[3] != "" {
			allocs, _ = strconv.ParseFloat(m[3], 64)
		}
		s := sums[m[1]]
		s.nsPerOp += ns
		s.allocs += allocs
		sums[m[1]] = s
		runs[m[1]]++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for name, s := range sums {
		n := runs[name]
		sums[name] = measurement{nsPerOp: s.nsPerOp / n, allocs: s.allocs / n}
	}
	return sums, nil
}

// delta is the relative change from base; zero when base is zero.
func delta(cur, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (cur - base) / base
}
