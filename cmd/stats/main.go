package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"tsume/pkg/record"
)

// nodeStats bins node counts by decade.
type nodeStats struct {
	count       int
	min         int64
	max         int64
	sum         int64
	initialized bool
	bins        map[int]int
}

func newNodeStats() *nodeStats {
	return &nodeStats{bins: make(map[int]int)}
}

func (ns *nodeStats) Add(nodes int64) {
	ns.count++
	ns.sum += nodes
	if !ns.initialized {
		ns.min, ns.max = nodes, nodes
		ns.initialized = true
	} else {
		ns.min = min(ns.min, nodes)
		ns.max = max(ns.max, nodes)
	}
	ns.bins[decade(nodes)]++
}

func decade(n int64) int {
	if n < 1 {
		return 0
	}
	return int(math.Floor(math.Log10(float64(n))))
}

func main() {
	inputPath := flag.String("input", "solve.parquet", "solve results parquet")
	verifyPath := flag.String("verify", "", "optional verify results parquet")
	parallel := flag.Int64("parallel", 4, "parquet read parallelism")
	flag.Parse()

	records, err := record.ReadParquet[record.SolveRecord](*inputPath, *parallel)
	if err != nil {
		fatal(err)
	}

	outcomes := make(map[string]int)
	lengths := make(map[int32]int)
	proved := newNodeStats()
	all := newNodeStats()
	var millis int64
	for _, r := range records {
		outcomes[r.Outcome]++
		all.Add(r.Nodes)
		millis += r.Millis
		if r.Proved() {
			proved.Add(r.Nodes)
			lengths[r.Length]++
		}
	}

	fmt.Printf("input parquet: %s\n", *inputPath)
	fmt.Printf("positions: %d\n", len(records))
	if len(records) == 0 {
		return
	}
	fmt.Printf("proof rate: %.2f%%\n", 100*float64(proved.count)/float64(len(records)))
	fmt.Printf("total time: %dms, nodes: %d\n", millis, all.sum)
	fmt.Println("outcomes:")
	for _, name := range sortedKeys(outcomes) {
		fmt.Printf("%s,%d\n", name, outcomes[name])
	}
	if proved.count > 0 {
		fmt.Printf("proof nodes: min=%d max=%d mean=%.1f\n", proved.min, proved.max, float64(proved.sum)/float64(proved.count))
		fmt.Println("proof nodes distribution (decades):")
		decades := make([]int, 0, len(proved.bins))
		for d := range proved.bins {
			decades = append(decades, d)
		}
		sort.Ints(decades)
		for _, d := range decades {
			lo := int64(math.Pow10(d))
			if d == 0 {
				lo = 0
			}
			fmt.Printf("%d-%d,%d\n", lo, int64(math.Pow10(d+1))-1, proved.bins[d])
		}
		fmt.Println("mate lengths:")
		keys := make([]int, 0, len(lengths))
		for k := range lengths {
			keys = append(keys, int(k))
		}
		sort.Ints(keys)
		for _, k := range keys {
			fmt.Printf("%d,%d\n", k, lengths[int32(k)])
		}
	}

	if *verifyPath != "" {
		verified, err := record.ReadParquet[record.VerifyRecord](*verifyPath, *parallel)
		if err != nil {
			fatal(err)
		}
		agree, longer := 0, 0
		statuses := make(map[string]int)
		for _, v := range verified {
			statuses[v.EngineStatus]++
			if v.Agree {
				agree++
			}
			if v.EngineLength > 0 && v.SolverLength > v.EngineLength {
				longer++
			}
		}
		fmt.Printf("verified: %d agree: %d solver line longer than engine: %d\n", len(verified), agree, longer)
		for _, name := range sortedKeys(statuses) {
			fmt.Printf("engine %s,%d\n", name, statuses[name])
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
