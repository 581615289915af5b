package runtime

import (
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ValidateName checks a data point name: 1-63 alphanumerics, '-', '_' or '.',
// starting and ending with an alphanumeric.
func ValidateName(name string, fldPath *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if len(name) == 0 {
		return append(allErrs, field.Required(fldPath, "name must not be empty"))
	}
	for _, msg := range validation.IsQualifiedName(name) {
		allErrs = append(allErrs, field.Invalid(fldPath, name, msg))
	}
	return allErrs
}
