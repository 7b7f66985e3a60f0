package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/alebbueno/pedidos-saas-sub000/internal/draft"
)

// New returns a configured validator with custom struct-level validation registered.
// Field errors are reported with their JSON names.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// a pickup draft must not carry a delivery fee
	v.RegisterStructValidation(draftStructValidation, draft.Draft{})

	return v
}

func draftStructValidation(sl validatorv10.StructLevel) {
	d := sl.Current().Interface().(draft.Draft)

	if d.DeliveryType == draft.DeliveryTypePickup && d.DeliveryFee != nil && *d.DeliveryFee != 0 {
		sl.ReportError(d.DeliveryFee, "delivery_fee", "DeliveryFee", "pickup_without_fee", fmt.Sprintf("%.2f", *d.DeliveryFee))
	}
}

// Fields flattens validator errors into field -> failed tag.
func Fields(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Namespace()] = fe.Tag()
		}
	} else if err != nil {
		out["error"] = err.Error()
	}
	return out
}

// Summary renders Fields as a stable, sorted one-line description.
func Summary(err error) string {
	fields := Fields(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, "; ")
}
