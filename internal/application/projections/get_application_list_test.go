package projections

import (
	"context"
	"errors"
	"testing"

	"divecenter/internal/domain/application"
)

type mockApplicationLister struct {
	applications []application.Application
	err          error
}

func (m *mockApplicationLister) ListApplications(_ context.Context) ([]application.Application, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.applications, nil
}

func sampleApplications() []application.Application {
	return []application.Application{
		{ID: 1, ApplicantName: "Jane Diver", ApplicantEmail: "jane@example.com", CourseName: "Open Water Diver", Status: application.StatusCompleted},
		{ID: 2, ApplicantName: "Bob Snorkel", ApplicantEmail: "bob@example.com", CourseName: "Advanced Open Water", Status: application.StatusPending},
		{ID: 3, ApplicantName: "Ana Reef", ApplicantEmail: "ana@example.com", CourseName: "Rescue Diver", Status: application.StatusPending},
	}
}

func TestQueryGetApplicationList_NoFilter(t *testing.T) {
	deps := GetApplicationListDeps{Backend: &mockApplicationLister{applications: sampleApplications()}}

	result, err := QueryGetApplicationList(context.Background(), GetApplicationListQuery{}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Applications) != 3 {
		t.Errorf("expected 3 applications, got %d", len(result.Applications))
	}
	if result.Total != 3 {
		t.Errorf("expected total 3, got %d", result.Total)
	}
}

func TestQueryGetApplicationList_StatusFilter(t *testing.T) {
	deps := GetApplicationListDeps{Backend: &mockApplicationLister{applications: sampleApplications()}}

	result, err := QueryGetApplicationList(context.Background(), GetApplicationListQuery{Status: application.StatusPending}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Applications) != 2 {
		t.Fatalf("expected 2 pending applications, got %d", len(result.Applications))
	}
	for _, app := range result.Applications {
		if app.Status != application.StatusPending {
			t.Errorf("unexpected status %q in filtered result", app.Status)
		}
	}
}

func TestQueryGetApplicationList_InvalidStatus(t *testing.T) {
	deps := GetApplicationListDeps{Backend: &mockApplicationLister{applications: sampleApplications()}}

	_, err := QueryGetApplicationList(context.Background(), GetApplicationListQuery{Status: "graduated"}, deps)
	if !errors.Is(err, application.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestQueryGetApplicationList_Search(t *testing.T) {
	deps := GetApplicationListDeps{Backend: &mockApplicationLister{applications: sampleApplications()}}

	cases := []struct {
		search string
		want   []int64
	}{
		{"jane", []int64{1}},
		{"open water", []int64{1, 2}},
		{"ana@example.com", []int64{3}},
		{"nothing", nil},
	}
	for _, tc := range cases {
		result, err := QueryGetApplicationList(context.Background(), GetApplicationListQuery{Search: tc.search}, deps)
		if err != nil {
			t.Fatalf("search %q: unexpected error: %v", tc.search, err)
		}
		var ids []int64
		for _, app := range result.Applications {
			ids = append(ids, app.ID)
		}
		if len(ids) != len(tc.want) {
			t.Errorf("search %q: expected ids %v, got %v", tc.search, tc.want, ids)
			continue
		}
		for i := range ids {
			if ids[i] != tc.want[i] {
				t.Errorf("search %q: expected ids %v, got %v", tc.search, tc.want, ids)
				break
			}
		}
	}
}

func TestQueryGetApplicationList_BackendError(t *testing.T) {
	deps := GetApplicationListDeps{Backend: &mockApplicationLister{err: errors.New("backend down")}}

	if _, err := QueryGetApplicationList(context.Background(), GetApplicationListQuery{}, deps); err == nil {
		t.Fatal("expected error, got nil")
	}
}
