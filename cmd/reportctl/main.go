// Command reportctl is a development CLI for the report-generation workflow:
// `reportctl submit "<prompt>"` creates a fresh report_status message at
// StagePending and publishes it for workflowd to pick up; `reportctl status
// -id <report_id>` looks the persisted state up directly (pass `-bill` to
// print the report's cost ledger instead); `reportctl serve` exposes the
// same lookup over HTTP so a browser or curl can poll progress. Grounded on
// cmd/scraper-reddit/main.go's flag/env CLI shape and pkg/mid's middleware
// chain for the HTTP surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/scheduler"
	"github.com/finalyze/core/engine/statestore"
	"github.com/finalyze/core/pkg/mid"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: reportctl <submit|status|serve> [flags]")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "submit":
		runSubmit(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		os.Exit(2)
	}
}

func runSubmit(args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	brokerURL := fs.String("broker-url", envOr("BROKER_URL", "nats://localhost:4222"), "NATS server URL")
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatalf("usage: reportctl submit <user_input>")
	}
	userInput := fs.Arg(0)

	nc, err := nats.Connect(*brokerURL)
	if err != nil {
		log.Fatalf("reportctl: nats connect: %v", err)
	}
	defer nc.Close()

	state := core.ReportState{
		ID:        uuid.NewString(),
		UserInput: userInput,
		LastStage: core.StagePending,
	}

	pub := scheduler.Publisher{NC: nc}
	if err := pub.Publish(context.Background(), state); err != nil {
		log.Fatalf("reportctl: publish: %v", err)
	}

	fmt.Println(state.ID)
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	stateDBURL := fs.String("state-db-url", envOr("STATE_DB_URL", "./data/finalyze.db"), "SQLite database file path")
	id := fs.String("id", "", "report id")
	bill := fs.Bool("bill", false, "print the report's cost ledger (token bill) instead of its state")
	fs.Parse(args)

	if *id == "" {
		log.Fatalf("usage: reportctl status -id <report_id> [-bill]")
	}

	store, err := statestore.Open(*stateDBURL)
	if err != nil {
		log.Fatalf("reportctl: open state store: %v", err)
	}
	reports := statestore.NewReportStateStore(store)

	state, err := reports.Get(context.Background(), *id)
	if err != nil {
		log.Fatalf("reportctl: get %s: %v", *id, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *bill {
		ledger := costledger.New()
		ledger.RecordAll(state.GenerationResults)
		enc.Encode(struct {
			ReportID  string                     `json:"report_id"`
			TokenBill []costledger.TokenBillLine `json:"token_bill"`
			Total     int64                      `json:"total_micro_credits"`
		}{ReportID: state.ID, TokenBill: ledger.TokenBill(), Total: ledger.Total()})
		return
	}

	enc.Encode(state)
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	stateDBURL := fs.String("state-db-url", envOr("STATE_DB_URL", "./data/finalyze.db"), "SQLite database file path")
	addr := fs.String("addr", ":8090", "HTTP listen address")
	fs.Parse(args)

	store, err := statestore.Open(*stateDBURL)
	if err != nil {
		log.Fatalf("reportctl: open state store: %v", err)
	}
	reports := statestore.NewReportStateStore(store)

	log := slog.Default()
	mux := http.NewServeMux()
	mux.HandleFunc("/reports/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/reports/"):]
		if id == "" {
			http.Error(w, "missing report id", http.StatusBadRequest)
			return
		}
		state, err := reports.Get(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(state)
	})

	handler := mid.Chain(mux, mid.Recover(log), mid.Logger(log))

	slog.Info("reportctl: serving", "addr", *addr)
	if err := http.ListenAndServe(*addr, handler); err != nil {
		log.Error("reportctl: serve", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
