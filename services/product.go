package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"catalog-service/models"

	"github.com/go-playground/validator/v10"
)

func (s *catalogServiceImpl) buildProduct(in *ProductInput) (*models.Product, error) {
	if in == nil {
		return nil, ErrInvalidProduct.Wrap("product details are required", nil)
	}
	if in.DiscountKind == "" {
		in.DiscountKind = string(models.DiscountPercentage)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, ErrInvalidProduct.Wrap(validationMessage(err), err)
	}

	discount := models.Discount{Kind: models.DiscountKind(in.DiscountKind), Amount: in.DiscountAmount}
	if err := validateDiscount(in.Price, discount); err != nil {
		return nil, err
	}

	specs, err := parseSpecifications(in.Specifications)
	if err != nil {
		return nil, err
	}

	return &models.Product{
		Overview:           in.Overview,
		Specifications:     specs,
		Badge:              in.Badge,
		Price:              in.Price,
		Discount:           discount,
		PriceAfterDiscount: PriceAfterDiscount(in.Price, discount),
		Stock:              in.Stock,
		Rating:             in.Rating,
	}, nil
}

// patchProduct merges patch into p. The discounted price is recomputed from
// the merged values whenever price or any discount field is present.
func (s *catalogServiceImpl) patchProduct(p *models.Product, patch *ProductPatch) error {
	merged := ProductInput{
		Overview:       p.Overview,
		Badge:          p.Badge,
		Price:          p.Price,
		DiscountKind:   string(p.Discount.Kind),
		DiscountAmount: p.Discount.Amount,
		Stock:          p.Stock,
		Rating:         p.Rating,
	}
	if patch.Overview != nil {
		merged.Overview = *patch.Overview
	}
	if patch.Badge != nil {
		merged.Badge = *patch.Badge
	}
	if patch.Price != nil {
		merged.Price = *patch.Price
	}
	if patch.DiscountKind != nil {
		merged.DiscountKind = *patch.DiscountKind
	}
	if merged.DiscountKind == "" {
		merged.DiscountKind = string(models.DiscountPercentage)
	}
	if patch.DiscountAmount != nil {
		merged.DiscountAmount = *patch.DiscountAmount
	}
	if patch.Stock != nil {
		merged.Stock = *patch.Stock
	}
	if patch.Rating != nil {
		merged.Rating = *patch.Rating
	}

	if err := s.validate.Struct(&merged); err != nil {
		return ErrInvalidProduct.Wrap(validationMessage(err), err)
	}

	discount := models.Discount{Kind: models.DiscountKind(merged.DiscountKind), Amount: merged.DiscountAmount}
	if patch.repricing() {
		if err := validateDiscount(merged.Price, discount); err != nil {
			return err
		}
		p.PriceAfterDiscount = PriceAfterDiscount(merged.Price, discount)
	}

	if patch.Specifications != nil {
		specs, err := parseSpecifications(*patch.Specifications)
		if err != nil {
			return err
		}
		p.Specifications = specs
	}

	p.Overview = merged.Overview
	p.Badge = merged.Badge
	p.Price = merged.Price
	p.Discount = discount
	p.Stock = merged.Stock
	p.Rating = merged.Rating
	return nil
}

// parseSpecifications decodes a JSON object. An empty string yields no specifications.
func parseSpecifications(raw string) (map[string]interface{}, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]interface{}{}, nil
	}
	var specs map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, ErrInvalidSpecifications.Wrap("specifications must be a JSON object", err)
	}
	if specs == nil {
		return nil, ErrInvalidSpecifications.Wrap("specifications must be a JSON object", nil)
	}
	return specs, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
