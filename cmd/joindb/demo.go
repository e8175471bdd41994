package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"joindb/pkg/execution/filter"
	"joindb/pkg/expr"
	"joindb/pkg/logging"
	"joindb/pkg/optimizer"
	"joindb/pkg/row"
	"joindb/pkg/session"
	"joindb/pkg/table"
	"joindb/pkg/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	planStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			PaddingLeft(2)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(2)
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run sample joins over built-in tables and show their plans",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Println(titleStyle.Render("joindb demo"))

	customers, orders, err := loadDemoTables(ctx)
	if err != nil {
		return fmt.Errorf("loading demo tables: %w", err)
	}
	logging.WithComponent("demo").Infow("tables loaded",
		"customers", customers.RowCount(), "orders", orders.RowCount())

	if err := demoInnerJoin(ctx, customers, orders); err != nil {
		return err
	}
	return demoOuterJoin(ctx, customers, orders)
}

// loadDemoTables builds and populates both tables concurrently.
func loadDemoTables(ctx context.Context) (*table.MemTable, *table.MemTable, error) {
	customers := table.NewMemTable("CUSTOMERS", row.NewSchema("CUSTOMERS",
		&row.Column{Name: "ID", Type: types.IntType},
		&row.Column{Name: "NAME", Type: types.StringType},
		&row.Column{Name: "CITY", Type: types.StringType},
	))
	orders := table.NewMemTable("ORDERS", row.NewSchema("ORDERS",
		&row.Column{Name: "ID", Type: types.IntType},
		&row.Column{Name: "CUSTOMER_ID", Type: types.IntType},
		&row.Column{Name: "TOTAL", Type: types.IntType},
	))

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		names := []string{"Ada", "Grace", "Edsger", "Barbara", "Donald"}
		cities := []string{"London", "Arlington", "Rotterdam", "Cambridge", "Milwaukee"}
		for i, name := range names {
			customers.Insert(
				types.NewIntField(int64(i+1)),
				types.NewStringField(name),
				types.NewStringField(cities[i]),
			)
		}
		return customers.CreateIndex("CUSTOMERS_ID", "ID")
	})
	g.Go(func() error {
		for i := int64(1); i <= 20; i++ {
			orders.Insert(
				types.NewIntField(i),
				types.NewIntField(i%3+1),
				types.NewIntField(i*17%90+10),
			)
		}
		return orders.CreateIndex("ORDERS_CUSTOMER_ID", "CUSTOMER_ID")
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return customers, orders, nil
}

func demoInnerJoin(ctx context.Context, customers, orders *table.MemTable) error {
	fmt.Println(sectionStyle.Render("\nCustomers with orders over 60 (inner join, optimized order)"))

	s := session.New(ctx)
	fc, err := filter.New(s, customers, "C", true, nil)
	if err != nil {
		return err
	}
	fo, err := filter.New(s, orders, "O", true, nil)
	if err != nil {
		return err
	}
	cond := expr.NewAnd(
		expr.NewComparison(types.Equals,
			expr.NewQualifiedColumnRef("C", "ID"),
			expr.NewQualifiedColumnRef("O", "CUSTOMER_ID")),
		expr.NewComparison(types.GreaterThan,
			expr.NewQualifiedColumnRef("O", "TOTAL"), expr.Int(60)),
	)

	top, cost, err := optimizer.Optimize(s, cond, fc, fo)
	if err != nil {
		return err
	}
	printPlan(top, cost)

	return runJoin(top, func() string {
		return fmt.Sprintf("%-10s %-12s order=%s total=%s",
			mustValue(fc, "NAME"), mustValue(fc, "CITY"),
			mustValue(fo, "ID"), mustValue(fo, "TOTAL"))
	})
}

func demoOuterJoin(ctx context.Context, customers, orders *table.MemTable) error {
	fmt.Println(sectionStyle.Render("\nAll customers and their big orders (left outer join)"))

	s := session.New(ctx)
	fc, err := filter.New(s, customers, "C", true, nil)
	if err != nil {
		return err
	}
	fo, err := filter.New(s, orders, "O", true, nil)
	if err != nil {
		return err
	}
	on := expr.NewAnd(
		expr.NewComparison(types.Equals,
			expr.NewQualifiedColumnRef("C", "ID"),
			expr.NewQualifiedColumnRef("O", "CUSTOMER_ID")),
		expr.NewComparison(types.GreaterThan,
			expr.NewQualifiedColumnRef("O", "TOTAL"), expr.Int(80)),
	)
	if err := fc.AddJoin(fo, true, false, on); err != nil {
		return err
	}

	cost, err := optimizer.PlanTree(s, fc, nil)
	if err != nil {
		return err
	}
	printPlan(fc, cost)

	return runJoin(fc, func() string {
		order := "-"
		if v := mustValue(fo, "ID"); !v.IsNull() {
			order = fmt.Sprintf("order=%s total=%s", v, mustValue(fo, "TOTAL"))
		}
		return fmt.Sprintf("%-10s %s", mustValue(fc, "NAME"), order)
	})
}

func printPlan(top *filter.TableFilter, cost float64) {
	var b strings.Builder
	for f := top; f != nil; f = f.Join() {
		b.WriteString(f.PlanSQL(f != top))
		b.WriteByte('\n')
	}
	fmt.Printf("%s\n%s", planStyle.Render(fmt.Sprintf("cost: %.2f", cost)),
		planStyle.Render(strings.TrimRight(b.String(), "\n")))
	fmt.Println()
}

func runJoin(top *filter.TableFilter, render func() string) error {
	top.StartQuery(top.Session())
	top.Reset()
	n := 0
	for {
		ok, err := top.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		n++
		fmt.Println(rowStyle.Render(render()))
	}
	fmt.Println(planStyle.Render(fmt.Sprintf("%d rows", n)))
	return nil
}

func mustValue(f *filter.TableFilter, column string) types.Field {
	v, err := f.Value(f.Schema().Find(column))
	if err != nil {
		return types.Null
	}
	return v
}
