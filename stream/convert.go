package stream

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/VitaminC1989/SpecMaster/store"
)

// ConvertStreamKey converts a DynamoDB stream key to a store.Record.
// Only scalar key types (S, N, B) are carried over.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) store.Record {
	result := make(store.Record)
	for k, v := range streamKey {
		switch v.DataType() {
		case events.DataTypeString:
			result[k] = &types.AttributeValueMemberS{Value: v.String()}
		case events.DataTypeNumber:
			result[k] = &types.AttributeValueMemberN{Value: v.Number()}
		case events.DataTypeBinary:
			result[k] = &types.AttributeValueMemberB{Value: v.Binary()}
		}
	}
	return result
}

// ConvertImage converts a full stream image to a store.Record, including
// nested lists and maps such as specDetails. A nil image yields nil.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) store.Record {
	if image == nil {
		return nil
	}
	result := make(store.Record, len(image))
	for k, v := range image {
		if av := fromStreamValue(v); av != nil {
			result[k] = av
		}
	}
	return result
}

// StreamImage converts a store.Record to a stream image. A nil record yields nil.
func StreamImage(r store.Record) map[string]events.DynamoDBAttributeValue {
	if r == nil {
		return nil
	}
	image := make(map[string]events.DynamoDBAttributeValue, len(r))
	for k, v := range r {
		if sv, ok := toStreamValue(v); ok {
			image[k] = sv
		}
	}
	return image
}

func fromStreamValue(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}
	case events.DataTypeList:
		list := make([]types.AttributeValue, 0, len(v.List()))
		for _, e := range v.List() {
			if av := fromStreamValue(e); av != nil {
				list = append(list, av)
			}
		}
		return &types.AttributeValueMemberL{Value: list}
	case events.DataTypeMap:
		m := make(map[string]types.AttributeValue, len(v.Map()))
		for k, e := range v.Map() {
			if av := fromStreamValue(e); av != nil {
				m[k] = av
			}
		}
		return &types.AttributeValueMemberM{Value: m}
	}
	return nil
}

func toStreamValue(av types.AttributeValue) (events.DynamoDBAttributeValue, bool) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return events.NewStringAttribute(v.Value), true
	case *types.AttributeValueMemberN:
		return events.NewNumberAttribute(v.Value), true
	case *types.AttributeValueMemberB:
		return events.NewBinaryAttribute(v.Value), true
	case *types.AttributeValueMemberBOOL:
		return events.NewBooleanAttribute(v.Value), true
	case *types.AttributeValueMemberNULL:
		return events.NewNullAttribute(), true
	case *types.AttributeValueMemberSS:
		return events.NewStringSetAttribute(v.Value), true
	case *types.AttributeValueMemberNS:
		return events.NewNumberSetAttribute(v.Value), true
	case *types.AttributeValueMemberBS:
		return events.NewBinarySetAttribute(v.Value), true
	case *types.AttributeValueMemberL:
		list := make([]events.DynamoDBAttributeValue, 0, len(v.Value))
		for _, e := range v.Value {
			if sv, ok := toStreamValue(e); ok {
				list = append(list, sv)
			}
		}
		return events.NewListAttribute(list), true
	case *types.AttributeValueMemberM:
		m := make(map[string]events.DynamoDBAttributeValue, len(v.Value))
		for k, e := range v.Value {
			if sv, ok := toStreamValue(e); ok {
				m[k] = sv
			}
		}
		return events.NewMapAttribute(m), true
	}
	return events.DynamoDBAttributeValue{}, false
}
