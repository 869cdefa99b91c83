package msg

import "strings"

// Storage and stream name prefixes.
const (
	attachPrefix = "__attach_version1.0"
	recipPrefix  = "__recip_version1.0"
	propPrefix   = "__substg1.0_"

	// Positions of the class and type codes in a property name.
	classStart = len(propPrefix)
	typeStart  = classStart + 4
	typeEnd    = typeStart + 4
)

// classAttachData is the attachment payload property. Its value is read on
// demand rather than during extraction.
const classAttachData = "3701"

// PropType is a MAPI property type code.
type PropType int

const (
	TypeUnknown PropType = iota
	TypeString8
	TypeUnicode
	TypeBinary
	TypeEmbeddedMessage
)

func (t PropType) String() string {
	switch t {
	case TypeString8:
		return "string8"
	case TypeUnicode:
		return "unicode"
	case TypeBinary:
		return "binary"
	case TypeEmbeddedMessage:
		return "message"
	default:
		return "unknown"
	}
}

func parsePropType(code string) PropType {
	switch strings.ToLower(code) {
	case "001e":
		return TypeString8
	case "001f":
		return TypeUnicode
	case "0102":
		return TypeBinary
	case "000d":
		return TypeEmbeddedMessage
	default:
		return TypeUnknown
	}
}

// Field names a recognised MAPI property class.
type Field int

const (
	FieldUnknown Field = iota
	FieldSubject
	FieldSenderName
	FieldSenderEmail
	FieldBody
	FieldBodyHTML
	FieldHeaders
	FieldMessageClass
	FieldDisplayTo
	FieldDisplayCc
	FieldInternetMessageID
	FieldExtension
	FieldFileNameShort
	FieldFileName
	FieldContentID
	FieldMimeTag
	FieldName
	FieldEmail
	FieldAddressType
	FieldEmailAddress
)

// fieldNames lists JSON keys in output order.
var fieldNames = [...]string{
	FieldUnknown:           "unknown",
	FieldSubject:           "subject",
	FieldSenderName:        "senderName",
	FieldSenderEmail:       "senderEmail",
	FieldBody:              "body",
	FieldBodyHTML:          "bodyHTML",
	FieldHeaders:           "headers",
	FieldMessageClass:      "messageClass",
	FieldDisplayTo:         "displayTo",
	FieldDisplayCc:         "displayCc",
	FieldInternetMessageID: "internetMessageId",
	FieldExtension:         "extension",
	FieldFileNameShort:     "fileNameShort",
	FieldFileName:          "fileName",
	FieldContentID:         "contentId",
	FieldMimeTag:           "mimeTag",
	FieldName:              "name",
	FieldEmail:             "email",
	FieldAddressType:       "addressType",
	FieldEmailAddress:      "emailAddress",
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fieldNames[FieldUnknown]
	}
	return fieldNames[f]
}

func lookupField(class string) Field {
	switch strings.ToLower(class) {
	case "0037":
		return FieldSubject
	case "0c1a":
		return FieldSenderName
	case "5d02":
		return FieldSenderEmail
	case "1000":
		return FieldBody
	case "1013":
		return FieldBodyHTML
	case "007d":
		return FieldHeaders
	case "001a":
		return FieldMessageClass
	case "0e04":
		return FieldDisplayTo
	case "0e03":
		return FieldDisplayCc
	case "1035":
		return FieldInternetMessageID
	case "3703":
		return FieldExtension
	case "3704":
		return FieldFileNameShort
	case "3707":
		return FieldFileName
	case "3712":
		return FieldContentID
	case "370e":
		return FieldMimeTag
	case "3001":
		return FieldName
	case "39fe":
		return FieldEmail
	case "3002":
		return FieldAddressType
	case "3003":
		return FieldEmailAddress
	default:
		return FieldUnknown
	}
}

// propCodes splits a __substg1.0_CCCCTTTT name into lower-cased class and
// type codes. ok is false when the name is too short.
func propCodes(name string) (class, typ string, ok bool) {
	if !strings.HasPrefix(name, propPrefix) || len(name) < typeEnd {
		return "", "", false
	}
	return strings.ToLower(name[classStart:typeStart]), strings.ToLower(name[typeStart:typeEnd]), true
}
