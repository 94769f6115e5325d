package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"divecenter/internal/domain/testimonial"
)

// TestimonialBackend defines the backend operations needed by SubmitTestimonial.
type TestimonialBackend interface {
	CreateTestimonial(ctx context.Context, t testimonial.Testimonial) (testimonial.Testimonial, error)
}

// SubmitTestimonialInput carries input for the testimonial orchestrator.
type SubmitTestimonialInput struct {
	Testimonial testimonial.Testimonial
}

// SubmitTestimonialDeps holds dependencies for SubmitTestimonial.
type SubmitTestimonialDeps struct {
	Backend TestimonialBackend
}

// ExecuteSubmitTestimonial validates a testimonial and forwards it to the backend.
// PRE: input.Testimonial carries name, content and rating
// POST: Testimonial created on the backend
func ExecuteSubmitTestimonial(ctx context.Context, input SubmitTestimonialInput, deps SubmitTestimonialDeps) (testimonial.Testimonial, error) {
	t := input.Testimonial
	if err := t.Validate(); err != nil {
		return testimonial.Testimonial{}, err
	}

	created, err := deps.Backend.CreateTestimonial(ctx, t)
	if err != nil {
		slog.Error("testimonial_event", "event", "submit_failed", "error", err.Error())
		return testimonial.Testimonial{}, fmt.Errorf("create testimonial: %w", err)
	}

	slog.Info("testimonial_event", "event", "submitted", "testimonial_id", created.ID, "rating", created.Rating)
	return created, nil
}
