package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeFlow(t *testing.T) *Flow {
	t.Helper()
	f := NewFlow()
	require.NoError(t, f.SelectClinic("clinic-1"))
	require.NoError(t, f.SelectDoctor("doc-1"))
	require.NoError(t, f.SelectServices([]string{"svc-cleaning"}))
	require.NoError(t, f.SelectDateTime(monday, 540))
	require.NoError(t, f.Confirm("toothache"))
	return f
}

func TestFlowHappyPath(t *testing.T) {
	f := completeFlow(t)
	assert.Equal(t, StateContactConfirmation, f.State)

	req := f.Request("patient-1")
	assert.Equal(t, "patient-1", req.PatientID)
	assert.Equal(t, "clinic-1", req.ClinicID)
	assert.Equal(t, "doc-1", req.DoctorID)
	assert.Equal(t, []string{"svc-cleaning"}, req.ServiceIDs)
	assert.True(t, SameDate(monday, req.Date))
	assert.Equal(t, 540, req.StartMinute)
	assert.Equal(t, "toothache", req.Symptoms)

	require.NoError(t, f.MarkCommitted())
	assert.Equal(t, StateCommitted, f.State)
}

func TestFlowRejectsSkippedSteps(t *testing.T) {
	f := NewFlow()

	err := f.SelectDoctor("doc-1")
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_flow_transition", rej.Type)

	err = f.SelectDateTime(monday, 540)
	assert.Error(t, err)

	err = f.MarkCommitted()
	assert.Error(t, err)

	// The state never moved.
	assert.Equal(t, StateClinicSelection, f.State)
}

func TestFlowRejectsEmptySelections(t *testing.T) {
	f := NewFlow()
	assert.Error(t, f.SelectClinic(""))

	require.NoError(t, f.SelectClinic("clinic-1"))
	assert.Error(t, f.SelectDoctor(""))

	require.NoError(t, f.SelectDoctor("doc-1"))
	require.NoError(t, f.SelectServices(nil)) // bare consultation is fine
	assert.Error(t, f.SelectDateTime(monday, -1))
}

func TestFlowBackDiscardsLaterSelections(t *testing.T) {
	f := completeFlow(t)

	require.NoError(t, f.Back(StateDoctorSelection))
	assert.Equal(t, StateDoctorSelection, f.State)
	assert.Equal(t, "clinic-1", f.ClinicID)
	assert.Empty(t, f.DoctorID)
	assert.Nil(t, f.ServiceIDs)
	assert.True(t, f.Date.IsZero())
	assert.Zero(t, f.StartMinute)

	// The flow can be walked forward again from there.
	require.NoError(t, f.SelectDoctor("doc-2"))
	assert.Equal(t, StateServiceSelection, f.State)
}

func TestFlowBackRejectsForwardTargets(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SelectClinic("clinic-1"))

	assert.Error(t, f.Back(StateDoctorSelection))       // current state
	assert.Error(t, f.Back(StateContactConfirmation))   // forward
	assert.Error(t, f.Back(FlowState("teleportation"))) // unknown
	assert.Equal(t, StateDoctorSelection, f.State)
}

func TestFlowCommittedIsTerminal(t *testing.T) {
	f := completeFlow(t)
	require.NoError(t, f.MarkCommitted())

	err := f.Back(StateClinicSelection)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "flow_committed", rej.Type)

	assert.Error(t, f.SelectClinic("clinic-2"))
	assert.Error(t, f.Confirm("changed my mind"))
	assert.Equal(t, StateCommitted, f.State)
}

func TestFlowBackToStartClearsEverything(t *testing.T) {
	f := completeFlow(t)

	require.NoError(t, f.Back(StateClinicSelection))
	assert.Empty(t, f.ClinicID)
	assert.Empty(t, f.DoctorID)
	assert.Nil(t, f.ServiceIDs)
	assert.Equal(t, time.Time{}, f.Date)
}
