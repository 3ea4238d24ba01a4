package services

import (
	apperrors "catalog-service/common/errors"
)

// Failure reasons raised by the catalog service. Match them with errors.Is.
var (
	ErrInvalidID              = apperrors.ErrValidation.WithReason("invalid_id")
	ErrParentNotFound         = apperrors.ErrNotFound.WithReason("parent_not_found")
	ErrInconsistentHierarchy  = apperrors.ErrValidation.WithReason("inconsistent_hierarchy")
	ErrMissingAsset           = apperrors.ErrValidation.WithReason("missing_asset")
	ErrTooManyAssets          = apperrors.ErrValidation.WithReason("too_many_assets")
	ErrInvalidSpecifications  = apperrors.ErrValidation.WithReason("invalid_specifications")
	ErrInvalidDiscount        = apperrors.ErrValidation.WithReason("invalid_discount")
	ErrInvalidProduct         = apperrors.ErrValidation.WithReason("invalid_product")
	ErrDuplicateName          = apperrors.ErrConflict.WithReason("duplicate_name")
	ErrEntityNotFound         = apperrors.ErrNotFound.WithReason("entity_not_found")
	ErrAssetUploadFailed      = apperrors.ErrUpstream.WithReason("asset_upload_failed")
	ErrAssetDeleteFailed      = apperrors.ErrUpstream.WithReason("asset_delete_failed")
	ErrMissingName            = apperrors.ErrValidation.WithReason("missing_name")
	ErrMissingParentReference = apperrors.ErrValidation.WithReason("missing_parent")
)
