package executor

import (
	"context"

	"github.com/devicelab-dev/backoffice-runner/pkg/backoffice"
	"github.com/devicelab-dev/backoffice-runner/pkg/config"
	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// LoginAction only checks that the credentials are accepted.
type LoginAction struct{}

func (LoginAction) Name() string                      { return "login" }
func (LoginAction) Require(config.Config) [][2]string { return nil }
func (LoginAction) Annotate(*core.Result)             {}

func (LoginAction) Run(_ context.Context, s *backoffice.Session) (*core.Result, error) {
	return &core.Result{
		Success: true,
		Message: "Login successful",
		Data:    map[string]interface{}{"cookies": s.CookieNames()},
	}, nil
}

// DeactivateRegisterAction deactivates a register and reads its status back.
type DeactivateRegisterAction struct {
	RegisterID string
}

func (a *DeactivateRegisterAction) Name() string { return "deactivate-register" }

// ApplyDefaults substitutes the default tenant and register id.
func (a *DeactivateRegisterAction) ApplyDefaults(cfg config.Config) config.Config {
	if cfg.Tenant == "" && cfg.BaseURL == "" {
		logger.Warn("myAccount not set, using default tenant %q", config.DefaultTenant)
		cfg.Tenant = config.DefaultTenant
	}
	if a.RegisterID == "" {
		a.RegisterID = cfg.RegisterID
	}
	if a.RegisterID == "" {
		logger.Warn("myRegisterId not set, using default register %q", config.DefaultRegisterID)
		a.RegisterID = config.DefaultRegisterID
	}
	return cfg
}

func (a *DeactivateRegisterAction) Require(config.Config) [][2]string {
	return [][2]string{{"myRegisterId", a.RegisterID}}
}

func (a *DeactivateRegisterAction) Annotate(*core.Result) {}

// Run posts the deactivation, then performs a best-effort readback whose
// outcome never changes the result.
func (a *DeactivateRegisterAction) Run(ctx context.Context, s *backoffice.Session) (*core.Result, error) {
	logger.Info("Deactivating register: %s", a.RegisterID)

	result, err := s.DeactivateRegister(ctx, a.RegisterID)
	if err != nil {
		return nil, err
	}

	if result.Success {
		logger.Info("Register deactivated successfully")
	} else {
		logger.Error("Failed to deactivate register. Status: %d", result.Status)
	}

	s.CheckRegisterStatus(ctx, a.RegisterID)
	return result, nil
}

// DeleteProductAction deletes the product whose name matches exactly.
type DeleteProductAction struct {
	ProductName string
	DryRun      bool
}

func (a *DeleteProductAction) Name() string { return "delete-product" }

func (a *DeleteProductAction) ApplyDefaults(cfg config.Config) config.Config {
	if a.ProductName == "" {
		a.ProductName = cfg.ProductName
	}
	if cfg.DryRun {
		a.DryRun = true
	}
	return cfg
}

func (a *DeleteProductAction) Require(config.Config) [][2]string {
	return [][2]string{{"myProductName", a.ProductName}}
}

func (a *DeleteProductAction) Annotate(r *core.Result) {
	r.ProductName = a.ProductName
	r.DryRun = a.DryRun
}

// Run searches, picks the exact match and deletes it unless in dry-run mode.
func (a *DeleteProductAction) Run(ctx context.Context, s *backoffice.Session) (*core.Result, error) {
	rows, err := s.SearchProducts(ctx, a.ProductName)
	if err != nil {
		return nil, err
	}

	product, err := backoffice.FindProduct(rows, a.ProductName)
	if err != nil {
		return nil, err
	}
	logger.Info("Found product: ID=%s, Name=%s", product.ID, product.Name)

	if a.DryRun {
		logger.Info("Dry-run mode: not deleting.")
		return &core.Result{
			Success:     true,
			ProductID:   product.ID,
			ProductName: product.Name,
			DryRun:      true,
			Message:     "Dry-run mode: not deleting.",
		}, nil
	}

	if err := s.DeleteProducts(ctx, product.ID); err != nil {
		return nil, err
	}

	return &core.Result{
		Success:     true,
		ProductID:   product.ID,
		ProductName: product.Name,
		Message:     "Product deleted successfully",
	}, nil
}
