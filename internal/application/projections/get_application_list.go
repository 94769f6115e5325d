// Package projections provides read-side queries over the backend collections
// and local stores.
package projections

import (
	"context"
	"fmt"
	"strings"

	"divecenter/internal/domain/application"
)

// ApplicationLister fetches the full application collection from the backend.
type ApplicationLister interface {
	ListApplications(ctx context.Context) ([]application.Application, error)
}

// GetApplicationListQuery carries query parameters.
type GetApplicationListQuery struct {
	Status string // exact status filter, empty for all
	Search string // case-insensitive match on applicant name, email or course
}

// GetApplicationListResult carries the query result.
type GetApplicationListResult struct {
	Applications []application.Application
	Total        int // total before filtering
}

// GetApplicationListDeps holds dependencies for GetApplicationList.
type GetApplicationListDeps struct {
	Backend ApplicationLister
}

// QueryGetApplicationList retrieves certification applications with optional
// status filter and text search. The backend only serves the full collection,
// so filtering happens here.
// PRE: query.Status is empty or a valid status
// POST: Returns matching applications in backend order
func QueryGetApplicationList(ctx context.Context, query GetApplicationListQuery, deps GetApplicationListDeps) (GetApplicationListResult, error) {
	if query.Status != "" && !application.ValidStatus(query.Status) {
		return GetApplicationListResult{}, application.ErrInvalidStatus
	}

	apps, err := deps.Backend.ListApplications(ctx)
	if err != nil {
		return GetApplicationListResult{}, fmt.Errorf("list applications: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(query.Search))
	var matched []application.Application
	for _, app := range apps {
		if query.Status != "" && app.Status != query.Status {
			continue
		}
		if search != "" && !applicationMatches(app, search) {
			continue
		}
		matched = append(matched, app)
	}

	return GetApplicationListResult{Applications: matched, Total: len(apps)}, nil
}

func applicationMatches(app application.Application, search string) bool {
	for _, field := range []string{app.ApplicantName, app.ApplicantEmail, app.CourseName} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}
