package options

import (
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"strconv"
)

func Validate(o *Options) []error {
	var errs []error
	fieldErrs := o.BaseOptions.Validate()
	if port, err := strconv.Atoi(o.Port); err != nil || port < 1 || port > 65535 {
		fieldErrs = append(fieldErrs, field.Invalid(field.NewPath("port"), o.Port, "must be a port number between 1 and 65535"))
	}
	if o.Wait < 0 {
		fieldErrs = append(fieldErrs, field.Invalid(field.NewPath("graceful-timeout"), o.Wait, "must not be negative"))
	}
	if (len(o.CertFile) == 0) != (len(o.KeyFile) == 0) {
		fieldErrs = append(fieldErrs, field.Invalid(field.NewPath("keyFile"), o.KeyFile, "certFile and keyFile must be set together"))
	}
	fieldErrs = append(fieldErrs, o.Device.Validate(field.NewPath("device"))...)
	fieldErrs = append(fieldErrs, o.Poll.Validate(field.NewPath("poll"))...)
	fieldErrs = append(fieldErrs, o.Mqtt.Validate(field.NewPath("mqtt"))...)

	names := sets.NewString()
	for i := range o.Instruments {
		path := field.NewPath("instruments").Index(i)
		if names.Has(o.Instruments[i].Name) {
			fieldErrs = append(fieldErrs, field.Duplicate(path.Child("name"), o.Instruments[i].Name))
		}
		names.Insert(o.Instruments[i].Name)
		fieldErrs = append(fieldErrs, o.Instruments[i].Validate(path)...)
	}

	for _, err := range fieldErrs {
		errs = append(errs, err)
	}
	return errs
}
