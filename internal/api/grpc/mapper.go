package grpc

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"rentstock-backend/internal/domain"
)

// toStruct maps a domain value onto a Struct through its JSON form, so the gRPC
// and HTTP surfaces share one field naming.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

func MapConstraintsToStruct(c *domain.Constraints) (*structpb.Struct, error) {
	return toStruct(c)
}

func MapIntervalsToStruct(intervals []domain.AvailabilityInterval) (*structpb.Struct, error) {
	if intervals == nil {
		intervals = []domain.AvailabilityInterval{}
	}
	return toStruct(map[string]any{"intervals": intervals})
}

func MapTasksToStruct(tasks []domain.OperatorTask) (*structpb.Struct, error) {
	if tasks == nil {
		tasks = []domain.OperatorTask{}
	}
	return toStruct(map[string]any{"tasks": tasks})
}

// int32Field reads a whole number field. A missing field reports ok == false.
func int32Field(req *structpb.Struct, name string) (int32, bool, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, false, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return 0, false, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false, fmt.Errorf("%s must be a 32-bit integer", name)
	}
	return int32(f), true, nil
}

func stringField(req *structpb.Struct, name string) string {
	return strings.TrimSpace(req.GetFields()[name].GetStringValue())
}
