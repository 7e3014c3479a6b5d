package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warehouse-fleet/models"
	"warehouse-fleet/services"
)

var (
	simTicks    int
	simDelta    float64
	simRequests []string
	simEvery    int
	simJSON     bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a headless simulation and print the outcome",
	Long: `Runs the fleet without a server. Each --request SKU is assigned up front,
then the clock advances --ticks times by --delta. The run stops early once
every task has completed or failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		warehouse, err := loadWarehouse(cfg.Simulation)
		if err != nil {
			return err
		}
		delta := simDelta
		if delta <= 0 {
			delta = cfg.Simulation.DeltaTime
		}
		return runSimulation(cmd.OutOrStdout(), warehouse, simRequests, simTicks, delta, simEvery, simJSON)
	},
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Render the warehouse grid and inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		warehouse, err := loadWarehouse(cfg.Simulation)
		if err != nil {
			return err
		}
		printLayout(cmd.OutOrStdout(), warehouse)
		return nil
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simTicks, "ticks", 200, "maximum number of ticks")
	simulateCmd.Flags().Float64Var(&simDelta, "delta", 0, "time per tick (default: simulation.delta_time)")
	simulateCmd.Flags().StringSliceVarP(&simRequests, "request", "r", nil, "SKUs to request (default: every SKU in inventory)")
	simulateCmd.Flags().IntVar(&simEvery, "every", 0, "print robot states every N ticks (0 = off)")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "print the final tasks as JSON")
}

// runSimulation - 헤드리스 시뮬레이션 실행
func runSimulation(out io.Writer, warehouse *services.Warehouse, skus []string, ticks int, delta float64, every int, asJSON bool) error {
	fleet, err := services.NewFleetCoordinator(warehouse.Fleet, warehouse.Grid, warehouse.Inventory,
		services.WithLogger(logger))
	if err != nil {
		return err
	}

	if len(skus) == 0 {
		for _, item := range warehouse.Inventory.Items() {
			skus = append(skus, item.SKU)
		}
	}
	for _, sku := range skus {
		if _, err := fleet.RequestItem(sku); err != nil {
			logger.Warn("⚠️ request rejected", zap.String("sku", sku), zap.Error(err))
			fmt.Fprintf(out, "request %s rejected: %v\n", sku, err)
		}
	}

	for i := 1; i <= ticks; i++ {
		if err := fleet.Step(delta); err != nil {
			return err
		}
		if every > 0 && i%every == 0 {
			printRobots(out, fleet.Clock(), fleet.Statuses())
		}
		if allTerminal(fleet.Tasks()) {
			break
		}
	}

	tasks := fleet.Tasks()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}
	printTasks(out, tasks)

	stats := fleet.Stats()
	fmt.Fprintf(out, "\nclock=%.2f tick=%d completed=%d failed=%d\n",
		stats.Clock, fleet.Tick(),
		stats.TasksByStatus[models.TaskCompleted], stats.TasksByStatus[models.TaskFailed])
	return nil
}

func allTerminal(tasks []models.Task) bool {
	for _, t := range tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}

func printRobots(out io.Writer, clock float64, robots []models.AgentSnapshot) {
	fmt.Fprintf(out, "t=%.2f\n", clock)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range robots {
		fmt.Fprintf(w, "  %s\t%s\t(%.2f,%.2f)\tqueue=%d\n", r.Name, r.State, r.Location.Row, r.Location.Col, r.QueueLength)
	}
	_ = w.Flush()
}

func printTasks(out io.Writer, tasks []models.Task) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SKU\tSHELF\tROBOT\tSTATUS\tCREATED\tDONE\tREASON")
	for _, t := range tasks {
		done := "-"
		if t.CompletedAt != nil {
			done = fmt.Sprintf("%.2f", *t.CompletedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.2f\t%s\t%s\n",
			t.SKU, t.ShelfID, t.AgentID, t.Status, t.CreatedAt, done, t.FailureReason)
	}
	_ = w.Flush()
}

// printLayout - 그리드 + 선반/품목 목록 출력
func printLayout(out io.Writer, warehouse *services.Warehouse) {
	name := warehouse.Name
	if name == "" {
		name = "warehouse"
	}
	fmt.Fprintf(out, "%s (%dx%d), dock %s, %d robots\n\n",
		name, warehouse.Grid.Rows, warehouse.Grid.Cols, warehouse.Fleet.Dock, len(warehouse.Fleet.Agents))
	fmt.Fprintln(out, warehouse.Grid.Render())
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SHELF\tPOSITION\tLOAD\tITEMS")
	for _, shelf := range warehouse.Inventory.Shelves() {
		var skus []string
		for _, item := range warehouse.Inventory.ItemsOnShelf(shelf.ID) {
			skus = append(skus, item.SKU)
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%v\n", shelf.ID, shelf.Position, shelf.Load, shelf.Capacity, skus)
	}
	_ = w.Flush()
}
