package syncapi

import (
	"github.com/gofiber/fiber/v2"
)

// Feature wraps the sync API for the feature loader.
type Feature struct {
	service *Service
}

// NewFeature creates the loadable sync API feature.
func NewFeature(service *Service) *Feature {
	return &Feature{service: service}
}

func (f *Feature) Name() string { return "syncapi" }

// IsEnabled always reports true; the sync API is the reason the
// server exists.
func (f *Feature) IsEnabled() bool { return true }

func (f *Feature) Load(app fiber.Router) error {
	NewHandler(f.service).RegisterRoutes(app)
	return nil
}
