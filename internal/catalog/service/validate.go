package service

import (
	caterrors "github.com/pharmacart/backend/internal/catalog/errors"
)

// maxPhotoBytes is the upper bound on an uploaded photo.
const maxPhotoBytes = 1_000_000

// fieldCheck pairs a failure predicate with the error it produces.
type fieldCheck struct {
	failed func(in MedicineInput) bool
	err    *caterrors.ValidationError
}

// inputChecks run in fixed order; the first failing check wins.
var inputChecks = []fieldCheck{
	{
		failed: func(in MedicineInput) bool { return in.Name == "" },
		err:    &caterrors.ValidationError{Field: "name", Reason: "Name is Required"},
	},
	{
		failed: func(in MedicineInput) bool { return in.Description == "" },
		err:    &caterrors.ValidationError{Field: "description", Reason: "Description is Required"},
	},
	{
		failed: func(in MedicineInput) bool { return in.Price == nil },
		err:    &caterrors.ValidationError{Field: "price", Reason: "Price is Required"},
	},
	{
		failed: func(in MedicineInput) bool { return in.Category == nil },
		err:    &caterrors.ValidationError{Field: "category", Reason: "Category is Required"},
	},
	{
		failed: func(in MedicineInput) bool { return in.Quantity == nil },
		err:    &caterrors.ValidationError{Field: "quantity", Reason: "Quantity is Required"},
	},
}

// validateInput applies the ordered field checks, then the photo size
// bound. Shared by Create and Update, which have identical rules.
func validateInput(in MedicineInput, photo *PhotoUpload) error {
	for _, check := range inputChecks {
		if check.failed(in) {
			return check.err
		}
	}
	if photo != nil && len(photo.Data) > maxPhotoBytes {
		return &caterrors.ValidationError{Field: "photo", Reason: "Photo should be less than 1mb"}
	}
	return nil
}
