package execution

import (
	"context"
	"errors"
	"time"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/poll"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/workspace"
)

var errBoom = errors.New("boom")

// fakeClient scripts workspace responses. Sequenced responses repeat their last element.
type fakeClient struct {
	submitStatementErr error
	statementStates    []string
	statementErr       error
	serviceError       *workspace.ServiceError
	manifest           *workspace.ResultManifest
	chunk              *workspace.ResultChunk
	chunkErr           error

	warehouses   []workspace.Warehouse
	warehouseErr error

	submitRunErr error
	runs         []*workspace.Run
	runErr       error
	output       *workspace.RunOutput
	outputErr    error

	clusters   []workspace.Cluster
	clusterErr error

	importErr  error
	statusErr  error
	objectInfo *workspace.ObjectInfo

	statementRequests []workspace.StatementRequest
	getStatementCalls int
	chunkCalls        int
	runRequests       []workspace.SubmitRunRequest
	getRunCalls       int
	outputRunIDs      []int64
	imports           []workspace.ImportRequest
}

func (f *fakeClient) ExecuteStatement(_ context.Context, req workspace.StatementRequest) (*workspace.Statement, error) {
	f.statementRequests = append(f.statementRequests, req)
	if f.submitStatementErr != nil {
		return nil, f.submitStatementErr
	}
	return &workspace.Statement{StatementID: "stmt-1", Status: &workspace.StatementStatus{State: workspace.StatementPending}}, nil
}

func (f *fakeClient) GetStatement(_ context.Context, id string) (*workspace.Statement, error) {
	idx := f.getStatementCalls
	f.getStatementCalls++
	if f.statementErr != nil {
		return nil, f.statementErr
	}
	state := f.statementStates[min(idx, len(f.statementStates)-1)]
	stmt := &workspace.Statement{StatementID: id, Status: &workspace.StatementStatus{State: state}}
	if state == workspace.StatementSucceeded {
		stmt.Manifest = f.manifest
	}
	if state == workspace.StatementFailed || state == workspace.StatementCanceled {
		stmt.Status.Error = f.serviceError
	}
	return stmt, nil
}

func (f *fakeClient) GetStatementResultChunk(context.Context, string, int) (*workspace.ResultChunk, error) {
	f.chunkCalls++
	if f.chunkErr != nil {
		return nil, f.chunkErr
	}
	return f.chunk, nil
}

func (f *fakeClient) ListWarehouses(context.Context) ([]workspace.Warehouse, error) {
	return f.warehouses, f.warehouseErr
}

func (f *fakeClient) GetWarehouse(_ context.Context, id string) (*workspace.Warehouse, error) {
	if f.warehouseErr != nil {
		return nil, f.warehouseErr
	}
	for i := range f.warehouses {
		if f.warehouses[i].ID == id {
			return &f.warehouses[i], nil
		}
	}
	return nil, &workspace.APIError{StatusCode: 404, ErrorCode: "RESOURCE_DOES_NOT_EXIST", Message: id}
}

func (f *fakeClient) SubmitRun(_ context.Context, req workspace.SubmitRunRequest) (int64, error) {
	f.runRequests = append(f.runRequests, req)
	if f.submitRunErr != nil {
		return 0, f.submitRunErr
	}
	return int64(100 + len(f.runRequests)), nil
}

func (f *fakeClient) GetRun(_ context.Context, runID int64) (*workspace.Run, error) {
	idx := f.getRunCalls
	f.getRunCalls++
	if f.runErr != nil {
		return nil, f.runErr
	}
	run := *f.runs[min(idx, len(f.runs)-1)]
	run.RunID = runID
	return &run, nil
}

func (f *fakeClient) GetRunOutput(_ context.Context, runID int64) (*workspace.RunOutput, error) {
	f.outputRunIDs = append(f.outputRunIDs, runID)
	if f.outputErr != nil {
		return nil, f.outputErr
	}
	if f.output == nil {
		return &workspace.RunOutput{}, nil
	}
	return f.output, nil
}

func (f *fakeClient) ListClusters(context.Context) ([]workspace.Cluster, error) {
	return f.clusters, f.clusterErr
}

func (f *fakeClient) Import(_ context.Context, req workspace.ImportRequest) error {
	f.imports = append(f.imports, req)
	return f.importErr
}

func (f *fakeClient) GetStatus(_ context.Context, path string) (*workspace.ObjectInfo, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if f.objectInfo != nil {
		return f.objectInfo, nil
	}
	return &workspace.ObjectInfo{Path: path, ObjectType: "NOTEBOOK"}, nil
}

func runIn(lifeCycle, result, message string) *workspace.Run {
	return &workspace.Run{
		RunPageURL: "https://example.cloud.databricks.com/#job/1/run/1",
		State:      &workspace.RunState{LifeCycleState: lifeCycle, ResultState: result, StateMessage: message},
	}
}

func newFakeClock() *poll.FakeClock {
	return poll.NewFakeClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
}
