// Package record stores solver results as parquet files and reads the SFEN
// corpora the solve tools consume.
package record

import (
	"strings"
)

// SolveRecord is one solved position.
type SolveRecord struct {
	ID       string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SFEN     string `parquet:"name=sfen, type=BYTE_ARRAY, convertedtype=UTF8"`
	Source   string `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8"`
	Outcome  string `parquet:"name=outcome, type=BYTE_ARRAY, convertedtype=UTF8"`
	Move     string `parquet:"name=move, type=BYTE_ARRAY, convertedtype=UTF8"`
	PV       string `parquet:"name=pv, type=BYTE_ARRAY, convertedtype=UTF8"`
	Length   int32  `parquet:"name=length, type=INT32"`
	Nodes    int64  `parquet:"name=nodes, type=INT64"`
	Millis   int64  `parquet:"name=millis, type=INT64"`
	MaxNodes int64  `parquet:"name=max_nodes, type=INT64"`
	Strict   bool   `parquet:"name=strict, type=BOOLEAN"`
}

// Proved reports whether the solver found a mate.
func (r SolveRecord) Proved() bool {
	return r.Outcome == "proved"
}

// Line splits the stored PV into USI moves.
func (r SolveRecord) Line() []string {
	return strings.Fields(r.PV)
}

// VerifyRecord compares a solver result with an engine's mate search.
type VerifyRecord struct {
	ID            string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SFEN          string `parquet:"name=sfen, type=BYTE_ARRAY, convertedtype=UTF8"`
	SolverOutcome string `parquet:"name=solver_outcome, type=BYTE_ARRAY, convertedtype=UTF8"`
	SolverMove    string `parquet:"name=solver_move, type=BYTE_ARRAY, convertedtype=UTF8"`
	SolverLength  int32  `parquet:"name=solver_length, type=INT32"`
	EngineStatus  string `parquet:"name=engine_status, type=BYTE_ARRAY, convertedtype=UTF8"`
	EnginePV      string `parquet:"name=engine_pv, type=BYTE_ARRAY, convertedtype=UTF8"`
	EngineLength  int32  `parquet:"name=engine_length, type=INT32"`
	EngineScore   string `parquet:"name=engine_score, type=BYTE_ARRAY, convertedtype=UTF8"`
	Agree         bool   `parquet:"name=agree, type=BOOLEAN"`
}
