// pkg/processor/processor_test.go
package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulfillment-ops/order-ingress/pkg/config"
	"github.com/fulfillment-ops/order-ingress/pkg/model"
)

func orderColumns() []string {
	return []string{
		model.ColDateCreated, model.ColWorkorder, model.ColOrderNo,
		model.ColServiceNo, model.ColCRMOrderType, model.ColStatus,
		model.ColAddress, model.ColCustomerName, model.ColWorkzone,
		model.ColBookingDate, model.ColContact,
	}
}

func orderRow(orderNo, crmType string) model.Row {
	return model.Row{
		model.ColDateCreated:  "2024-03-15 10:30:00",
		model.ColWorkorder:    "WO-" + orderNo,
		model.ColOrderNo:      orderNo,
		model.ColServiceNo:    "SVC-1",
		model.ColCRMOrderType: crmType,
		model.ColStatus:       "COMPLETED",
		model.ColAddress:      "Jl. Contoh 1",
		model.ColCustomerName: "Customer " + orderNo,
		model.ColWorkzone:     "ZONE-A",
		model.ColBookingDate:  "2024-03-16",
		model.ColContact:      "0812345678",
	}
}

func wsaProcessor() *Processor {
	return New(model.ModeWSA, config.DefaultRules(), nil)
}

func TestStageOrderEnforced(t *testing.T) {
	p := wsaProcessor()

	assert.ErrorIs(t, p.CleanCommon(), ErrNotLoaded)

	p.Load(model.NewTable(orderColumns()))
	assert.ErrorIs(t, p.FilterByMode(), ErrNotCleaned)
	assert.ErrorIs(t, p.FilterByMonths([]int{3}), ErrNotFiltered)
	assert.ErrorIs(t, p.RemoveDuplicates(nil), ErrNotFiltered)

	_, err := p.Finalize()
	assert.ErrorIs(t, err, ErrNotProcessed)
}

func TestWSAFilterKeepsMatchingOrders(t *testing.T) {
	tbl := model.NewTable(orderColumns())
	tbl.Append(orderRow("AO123", "CREATE"))
	tbl.Append(orderRow("OTHER1", "UPDATE"))
	tbl.Append(orderRow("PDA456", "MIGRATE"))

	p := wsaProcessor().Load(tbl)
	require.NoError(t, p.CleanCommon())
	require.NoError(t, p.FilterByMode())

	assert.Equal(t, 2, p.Stats().Get(model.StatFilteredRows))
}

func TestWSAContactBackfillFirstWins(t *testing.T) {
	tbl := model.NewTable(orderColumns())

	first := orderRow("AO100", "CREATE")
	first[model.ColCustomerName] = "Budi"
	first[model.ColContact] = "0811111111"
	tbl.Append(first)

	second := orderRow("AO200", "CREATE")
	second[model.ColCustomerName] = "Budi"
	second[model.ColContact] = "0822222222"
	tbl.Append(second)

	blank := orderRow("AO300", "CREATE")
	blank[model.ColCustomerName] = "Budi"
	blank[model.ColContact] = ""
	tbl.Append(blank)

	p := wsaProcessor().Load(tbl)
	require.NoError(t, p.CleanCommon())
	require.NoError(t, p.FilterByMode())
	require.NoError(t, p.RemoveDuplicates(nil))
	out, err := p.Finalize()
	require.NoError(t, err)

	require.Equal(t, 3, out.NumRows())
	// First sighting of the customer's contact wins, already normalized.
	assert.Equal(t, "62811111111", out.Value(2, model.ColContact))
}

func TestModorosoFilter(t *testing.T) {
	tbl := model.NewTable(orderColumns())
	tbl.Append(orderRow("ORDER-MO-001", "CREATE"))
	tbl.Append(orderRow("ORDER-DO-002", "CREATE"))
	tbl.Append(orderRow("ORDER-REG", "CREATE"))

	p := New(model.ModeModoroso, config.DefaultRules(), nil).Load(tbl)
	require.NoError(t, p.CleanCommon())
	require.NoError(t, p.FilterByMode())
	require.NoError(t, p.RemoveDuplicates(nil))
	out, err := p.Finalize()
	require.NoError(t, err)

	require.Equal(t, 2, out.NumRows())
	categories := map[string]string{}
	for i := 0; i < out.NumRows(); i++ {
		key := out.Value(i, model.ColOrderNo).(string)
		categories[key] = out.Value(i, model.ColCRMOrderType).(string)
		assert.Equal(t, "TSEL", out.Value(i, model.ColMitra))
	}
	assert.Equal(t, "MO", categories["ORDER-MO-001"])
	assert.Equal(t, "DO", categories["ORDER-DO-002"])
}

func TestWAPPRFilterByStatus(t *testing.T) {
	tbl := model.NewTable(orderColumns())

	pending := orderRow("AO500", "CREATE")
	pending[model.ColStatus] = " wappr "
	tbl.Append(pending)

	done := orderRow("AO600", "CREATE")
	done[model.ColStatus] = "COMPLETED"
	tbl.Append(done)

	p := New(model.ModeWAPPR, config.DefaultRules(), nil).Load(tbl)
	require.NoError(t, p.CleanCommon())
	require.NoError(t, p.FilterByMode())

	assert.Equal(t, 1, p.Stats().Get(model.StatFilteredRows))
}

func TestDeduplicationNormalizesBothSides(t *testing.T) {
	tbl := model.NewTable(orderColumns())
	tbl.Append(orderRow("AO123", "CREATE"))
	tbl.Append(orderRow("AO999", "CREATE"))

	p := wsaProcessor().Load(tbl)
	require.NoError(t, p.CleanCommon())
	require.NoError(t, p.FilterByMode())
	require.NoError(t, p.RemoveDuplicates([]string{"ao123 "}))

	stats := p.Stats()
	assert.Equal(t, 1, stats.Get(model.StatUniqueRows))
	assert.Equal(t, 1, stats.Get(model.StatDuplicatesRemoved))
}

func TestDeduplicationMissingKeyColumnDegrades(t *testing.T) {
	tbl := model.NewTable([]string{model.ColWorkorder, model.ColStatus})
	tbl.Append(model.Row{model.ColWorkorder: "WO-1", model.ColStatus: "COMPLETED"})

	p := wsaProcessor().Load(tbl)
	require.NoError(t, p.CleanCommon())
	require.NoError(t, p.FilterByMode())
	require.NoError(t, p.RemoveDuplicates([]string{"WO-1"}))

	stats := p.Stats()
	assert.Equal(t, 1, stats.Get(model.StatUniqueRows))
	assert.Equal(t, 0, stats.Get(model.StatDuplicatesRemoved))
}

func TestMonthFilterEmptySetIsNoop(t *testing.T) {
	tbl := model.NewTable(orderColumns())
	tbl.Append(orderRow("AO123", "CREATE"))
	tbl.Append(orderRow("PDA456", "MIGRATE"))

	p := wsaProcessor().Load(tbl)
	require.NoError(t, p.CleanCommon())
	require.NoError(t, p.FilterByMode())
	before := p.Stats().Get(model.StatFilteredRows)
	require.NoError(t, p.FilterByMonths(nil))
	require.NoError(t, p.RemoveDuplicates(nil))

	assert.Equal(t, before, p.Stats().Get(model.StatUniqueRows))
}

func TestMonthFilterDropsUnparsableDates(t *testing.T) {
	tbl := model.NewTable(orderColumns())

	march := orderRow("AO100", "CREATE")
	tbl.Append(march)

	april := orderRow("AO200", "CREATE")
	april[model.ColDateCreated] = "2024-04-01 09:00:00"
	tbl.Append(april)

	garbled := orderRow("AO300", "CREATE")
	garbled[model.ColDateCreated] = "not a date"
	tbl.Append(garbled)

	p := wsaProcessor().Load(tbl)
	require.NoError(t, p.CleanCommon())
	require.NoError(t, p.FilterByMode())
	require.NoError(t, p.FilterByMonths([]int{3}))

	stats := p.Stats()
	assert.Equal(t, 1, stats.Get(model.StatMonthFilteredRows))
	assert.Equal(t, 2, stats.Get(model.StatMonthFilteredOut))
}

func TestFinalizeSchemaStable(t *testing.T) {
	tbl := model.NewTable(append(orderColumns(), "Extra Note"))
	row := orderRow("AO123", "CREATE")
	row["Extra Note"] = "keep me"
	tbl.Append(row)

	p := wsaProcessor().Load(tbl)
	require.NoError(t, p.CleanCommon())
	require.NoError(t, p.FilterByMode())
	require.NoError(t, p.RemoveDuplicates(nil))
	out, err := p.Finalize()
	require.NoError(t, err)

	cols := out.Columns()
	target := model.OutputColumns(model.ModeWSA)
	require.GreaterOrEqual(t, len(cols), len(target))
	assert.Equal(t, target, cols[:len(target)])
	assert.Contains(t, cols, "Extra Note")
	assert.NotContains(t, cols, model.ColDateCreatedParsed)
	assert.NotContains(t, cols, model.ColDateCreatedDisplay)

	// Creation timestamp replaced with its display form.
	assert.Equal(t, "15/03/2024 10:30", out.Value(0, model.ColDateCreated))
}

func TestFinalizeSortsByWorkzone(t *testing.T) {
	tbl := model.NewTable(orderColumns())

	b := orderRow("AO100", "CREATE")
	b[model.ColWorkzone] = "ZONE-B"
	tbl.Append(b)

	a := orderRow("AO200", "CREATE")
	a[model.ColWorkzone] = "ZONE-A"
	tbl.Append(a)

	p := wsaProcessor().Load(tbl)
	require.NoError(t, p.CleanCommon())
	require.NoError(t, p.FilterByMode())
	require.NoError(t, p.RemoveDuplicates(nil))
	out, err := p.Finalize()
	require.NoError(t, err)

	assert.Equal(t, "ZONE-A", out.Value(0, model.ColWorkzone))
	assert.Equal(t, "ZONE-B", out.Value(1, model.ColWorkzone))
}

func TestStatsMonotone(t *testing.T) {
	tbl := model.NewTable(orderColumns())
	tbl.Append(orderRow("AO123", "CREATE"))
	tbl.Append(orderRow("OTHER1", "UPDATE"))
	tbl.Append(orderRow("PDA456", "MIGRATE"))
	tbl.Append(orderRow("AO123", "CREATE"))

	p := wsaProcessor()
	_, err := p.Process(tbl, nil, []string{"AO123"})
	require.NoError(t, err)

	require.NoError(t, VerifyStats(p.Stats()))
}

func TestVerifyStatsCatchesViolation(t *testing.T) {
	stats := make(model.ProcessingStats)
	stats.Set(model.StatRawRows, 2)
	stats.Set(model.StatCleanedRows, 2)
	stats.Set(model.StatFilteredRows, 2)
	stats.Set(model.StatUniqueRows, 5)
	stats.Set(model.StatFinalRows, 5)

	assert.Error(t, VerifyStats(stats))
}

func TestProcessInputNotMutated(t *testing.T) {
	tbl := model.NewTable(orderColumns())
	tbl.Append(orderRow("AO123_B2", "CREATE"))

	_, err := wsaProcessor().Process(tbl, nil, nil)
	require.NoError(t, err)

	// The caller's table keeps its raw values.
	assert.Equal(t, "AO123_B2", tbl.Value(0, model.ColOrderNo))
	assert.False(t, tbl.HasColumn(model.ColDateCreatedParsed))
}

func TestSummaryReport(t *testing.T) {
	stats := make(model.ProcessingStats)
	stats.Set(model.StatRawRows, 10)
	stats.Set(model.StatFinalRows, 5)

	report := SummaryReport(model.ModeWSA, stats)
	assert.Contains(t, report, "Raw Rows:            10")
	assert.Contains(t, report, "Final Rows:          5")
	assert.Contains(t, report, "50.0%")
}
