package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pubsim/internal/credit"
	"github.com/talgya/pubsim/internal/engine"
	"github.com/talgya/pubsim/internal/events"
	"github.com/talgya/pubsim/internal/staff"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_MigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestEvents_RecentNewestFirst(t *testing.T) {
	db := openTestDB(t)
	run, err := db.StartRun(7, "The Test Arms")
	require.NoError(t, err)

	recs := []events.Record{
		{Week: 1, Day: 0, Round: 1, Kind: events.KindInfo, Category: "bar", Text: "first"},
		{Week: 1, Day: 0, Round: 2, Kind: events.KindNegative, Category: "fight", Text: "second"},
		{Week: 1, Day: 0, Round: 3, Kind: events.KindPopup, Category: "report", Title: "Week", Text: "third"},
	}
	require.NoError(t, db.SaveEvents(run, recs))
	require.NoError(t, db.SaveEvents(run, nil))

	rows, err := db.RecentEvents(run, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "third", rows[0].Text)
	assert.Equal(t, "popup", rows[0].Kind)
	assert.Equal(t, "Week", rows[0].Title)
	assert.Equal(t, "neg", rows[1].Kind)

	other, err := db.RecentEvents("other-run", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestReports_ReplaceAndOrder(t *testing.T) {
	db := openTestDB(t)
	run, err := db.StartRun(1, "p")
	require.NoError(t, err)

	require.NoError(t, db.SaveReport(run, engine.WeekSummary{Week: 2, Revenue: 50, Identity: "Neutral"}))
	require.NoError(t, db.SaveReport(run, engine.WeekSummary{Week: 1, Revenue: 10, Identity: "Neutral"}))
	require.NoError(t, db.SaveReport(run, engine.WeekSummary{Week: 2, Revenue: 80, Identity: "Rowdy"}))

	rows, err := db.Reports(run)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Week)
	assert.InDelta(t, 80, rows[1].Revenue, 1e-9)
	assert.Equal(t, "Rowdy", rows[1].Identity)
}

func TestMeta_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveMeta("r1", "clock", "Week 1 Mon (closed)"))
	require.NoError(t, db.SaveMeta("r1", "clock", "Week 2 Mon (closed)"))

	v, err := db.GetMeta("r1", "clock")
	require.NoError(t, err)
	assert.Equal(t, "Week 2 Mon (closed)", v)

	_, err = db.GetMeta("r1", "missing")
	assert.Error(t, err)
}

func TestSaveRun_JournalsSnapshot(t *testing.T) {
	db := openTestDB(t)
	sim := engine.NewSimulation(engine.Options{Seed: 11})
	_, err := sim.Hire(staff.RoleTrainee)
	require.NoError(t, err)
	_, err = sim.OpenCreditLine(credit.BankTownland)
	require.NoError(t, err)
	sim.LastWeek = &engine.WeekSummary{Week: 1, Revenue: 12, Identity: "Neutral"}

	run, err := db.StartRun(sim.Seed, sim.PubName)
	require.NoError(t, err)
	require.NoError(t, db.SaveRun(run, sim, sim.Log.Drain()))

	reports, err := db.Reports(run)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	clock, err := db.GetMeta(run, "clock")
	require.NoError(t, err)
	assert.Equal(t, engine.SimTime(sim), clock)

	var staffRows int
	require.NoError(t, db.conn.Get(&staffRows, "SELECT COUNT(*) FROM staff WHERE run_id = ?", run))
	assert.Equal(t, 1, staffRows)

	var lineRows int
	require.NoError(t, db.conn.Get(&lineRows, "SELECT COUNT(*) FROM credit_lines WHERE run_id = ?", run))
	assert.Equal(t, 1, lineRows)

	// A second save replaces the snapshots.
	require.NoError(t, db.SaveRun(run, sim, nil))
	require.NoError(t, db.conn.Get(&staffRows, "SELECT COUNT(*) FROM staff WHERE run_id = ?", run))
	assert.Equal(t, 1, staffRows)
}
