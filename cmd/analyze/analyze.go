package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"tsume/pkg/record"
)

type scenario struct {
	budget     int64
	lengthFrom int
	lengthTo   int
}

type stats struct {
	total  int
	solved int
}

// main parses CLI flags and prints CSV proof rates per node budget.
func main() {
	inputPath := flag.String("input", "solve.parquet", "solve results parquet")
	budgetsArg := flag.String("budgets", "1000,10000,100000,1000000", "comma-separated node budgets")
	binSize := flag.Int("length-bin-size", 4, "mate length bucket size")
	parallel := flag.Int64("parallel", 4, "parquet read parallelism")
	flag.Parse()

	budgets, err := parseIntList(*budgetsArg)
	if err != nil {
		fatal(err)
	}
	if len(budgets) == 0 {
		fatal(fmt.Errorf("budgets must be non-empty"))
	}
	if *binSize <= 0 {
		fatal(fmt.Errorf("length-bin-size must be > 0"))
	}

	records, err := record.ReadParquet[record.SolveRecord](*inputPath, *parallel)
	if err != nil {
		fatal(err)
	}
	scenarios := buildScenarios(budgets, maxLength(records), *binSize)
	results := make(map[scenario]*stats, len(scenarios))
	for _, sc := range scenarios {
		results[sc] = &stats{}
	}

	for _, r := range records {
		for _, sc := range scenarios {
			if !inBucket(r, sc) {
				continue
			}
			st := results[sc]
			st.total++
			if r.Proved() && r.Nodes <= sc.budget {
				st.solved++
			}
		}
	}
	printCSV(scenarios, results)
}

// buildScenarios creates one scenario per budget and mate length bucket,
// plus an all-positions row per budget (lengthFrom = -1).
// maxLen: longest proved mate; binSize: bucket width in plies.
func buildScenarios(budgets []int64, maxLen, binSize int) []scenario {
	var scenarios []scenario
	for _, budget := range budgets {
		scenarios = append(scenarios, scenario{budget: budget, lengthFrom: -1, lengthTo: -1})
		for from := 1; from <= maxLen; from += binSize {
			scenarios = append(scenarios, scenario{budget: budget, lengthFrom: from, lengthTo: from + binSize})
		}
	}
	sort.SliceStable(scenarios, func(i, j int) bool {
		if scenarios[i].lengthFrom == scenarios[j].lengthFrom {
			return scenarios[i].budget < scenarios[j].budget
		}
		return scenarios[i].lengthFrom < scenarios[j].lengthFrom
	})
	return scenarios
}

// maxLength returns the longest proved mate in records.
func maxLength(records []record.SolveRecord) int {
	longest := 0
	for _, r := range records {
		if r.Proved() {
			longest = max(longest, int(r.Length))
		}
	}
	return longest
}

// inBucket reports whether r counts toward sc. Length buckets only hold
// proved positions since only those have a length.
func inBucket(r record.SolveRecord, sc scenario) bool {
	if sc.lengthFrom < 0 {
		return true
	}
	return r.Proved() && int(r.Length) >= sc.lengthFrom && int(r.Length) < sc.lengthTo
}

// parseIntList parses comma-separated integers with optional whitespace.
// raw: input string like "100,200"; returns empty slice when raw is blank.
func parseIntList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	values := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// printCSV writes CSV to stdout for all scenarios.
func printCSV(scenarios []scenario, results map[scenario]*stats) {
	fmt.Println("length_from,length_to,budget,total,solved,proof_rate")
	for _, sc := range scenarios {
		st := results[sc]
		rate := 0.0
		if st.total > 0 {
			rate = float64(st.solved) / float64(st.total)
		}
		from, to := strconv.Itoa(sc.lengthFrom), strconv.Itoa(sc.lengthTo)
		if sc.lengthFrom < 0 {
			from, to = "all", "all"
		}
		fmt.Printf("%s,%s,%d,%d,%d,%.6f\n", from, to, sc.budget, st.total, st.solved, rate)
	}
}

// fatal prints an error to stderr and exits with status 1.
func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
