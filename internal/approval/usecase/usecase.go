package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/approval"
	"github.com/fekuna/omnipos-marketplace-service/internal/approval/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/database"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
	"github.com/fekuna/omnipos-marketplace-service/internal/product"
	productdto "github.com/fekuna/omnipos-marketplace-service/internal/product/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/sales"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type approvalUseCase struct {
	repo                  approval.Repository
	products              product.UseCase
	tm                    *database.TxManager
	defaultCommissionRate model.Fixed
	logger                logger.ZapLogger
}

func NewApprovalUseCase(repo approval.Repository, products product.UseCase, tm *database.TxManager, defaultCommissionRate model.Fixed, log logger.ZapLogger) approval.UseCase {
	return &approvalUseCase{
		repo:                  repo,
		products:              products,
		tm:                    tm,
		defaultCommissionRate: defaultCommissionRate,
		logger:                log,
	}
}

func (uc *approvalUseCase) Submit(ctx context.Context, principal *auth.Principal, input *dto.SubmitInput) (*model.ProductRequest, error) {
	if err := principal.Require(auth.RoleSeller); err != nil {
		return nil, err
	}
	if err := productdto.ValidateListing(input.Name, input.Image, input.Price, input.Category); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := &model.ProductRequest{
		ID:             uuid.New().String(),
		VendorID:       principal.UserID,
		Name:           strings.TrimSpace(input.Name),
		Image:          strings.TrimSpace(input.Image),
		Description:    input.Description,
		Price:          input.Price,
		Category:       input.Category,
		Status:         model.RequestPending,
		CommissionRate: uc.defaultCommissionRate,
		CreatedAt:      now,
		ModifiedAt:     now,
	}
	if err := uc.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	uc.logger.Info("product request submitted", zap.String("request_id", req.ID), zap.String("vendor_id", req.VendorID))
	return req, nil
}

func (uc *approvalUseCase) Approve(ctx context.Context, principal *auth.Principal, requestID string) (*model.Product, error) {
	if err := principal.Require(auth.RoleAdmin); err != nil {
		return nil, err
	}

	var p *model.Product
	err := uc.tm.WithinTx(ctx, func(ctx context.Context) error {
		req, err := uc.decide(ctx, requestID, model.RequestApproved, nil)
		if err != nil {
			return err
		}

		vendorID := req.VendorID
		rate := req.CommissionRate
		p, err = uc.products.Materialize(ctx, &productdto.CreateProductInput{
			Name:           req.Name,
			Image:          req.Image,
			Description:    req.Description,
			Price:          req.Price,
			Category:       req.Category,
			VendorID:       &vendorID,
			CommissionRate: &rate,
		})
		if err != nil {
			return err
		}
		return uc.repo.AttachProduct(ctx, req.ID, p.ID, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	uc.products.Publish(ctx, p)
	uc.logger.Info("product request approved",
		zap.String("request_id", requestID),
		zap.String("product_id", p.ID),
		zap.String("slug", p.Slug),
	)
	return p, nil
}

func (uc *approvalUseCase) Reject(ctx context.Context, principal *auth.Principal, requestID string, notes string) (*model.ProductRequest, error) {
	if err := principal.Require(auth.RoleAdmin); err != nil {
		return nil, err
	}

	var stored *string
	if notes = strings.TrimSpace(notes); notes != "" {
		stored = &notes
	}

	var req *model.ProductRequest
	err := uc.tm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = uc.decide(ctx, requestID, model.RequestRejected, stored)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("product request rejected", zap.String("request_id", requestID))
	return req, nil
}

// decide transitions the request out of pending and returns it as stored
// after the change.
func (uc *approvalUseCase) decide(ctx context.Context, requestID string, status model.RequestStatus, notes *string) (*model.ProductRequest, error) {
	ok, err := uc.repo.Decide(ctx, requestID, status, notes, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	req, err := uc.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.State("product request %s is already %s", requestID, req.Status)
	}
	return req, nil
}

func (uc *approvalUseCase) CalculateBenefit(ctx context.Context, principal *auth.Principal, requestID string) (*dto.Benefit, error) {
	req, err := uc.GetRequest(ctx, principal, requestID)
	if err != nil {
		return nil, err
	}
	return &dto.Benefit{
		RequestID:      req.ID,
		Price:          req.Price,
		CommissionRate: req.CommissionRate,
		Benefit:        sales.Commission(req.Price, req.CommissionRate),
	}, nil
}

// GetRequest returns a request to its vendor or to an admin.
func (uc *approvalUseCase) GetRequest(ctx context.Context, principal *auth.Principal, requestID string) (*model.ProductRequest, error) {
	if err := principal.Require(auth.RoleSeller, auth.RoleAdmin); err != nil {
		return nil, err
	}

	req, err := uc.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if principal.Role != auth.RoleAdmin && req.VendorID != principal.UserID {
		return nil, apperror.NotFound("product request %q not found", requestID)
	}
	return req, nil
}

func (uc *approvalUseCase) ListVendorRequests(ctx context.Context, principal *auth.Principal) ([]model.ProductRequest, error) {
	if err := principal.Require(auth.RoleSeller); err != nil {
		return nil, err
	}
	return uc.repo.FindByVendor(ctx, principal.UserID)
}

func (uc *approvalUseCase) ListPending(ctx context.Context, principal *auth.Principal) ([]model.ProductRequest, error) {
	if err := principal.Require(auth.RoleAdmin); err != nil {
		return nil, err
	}
	return uc.repo.FindByStatus(ctx, model.RequestPending)
}
