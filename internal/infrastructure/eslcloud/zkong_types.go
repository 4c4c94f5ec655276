package eslcloud

import (
	"encoding/json"
	"strconv"
	"strings"
)

// apiResponse is the common envelope of the vendor's JSON replies
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// tokenPayload is the data section of a token exchange reply
type tokenPayload struct {
	Token       string `json:"token"`
	CurrentUser struct {
		AgencyID   flexString `json:"agencyId"`
		MerchantID flexString `json:"merchantId"`
	} `json:"currentUser"`
}

// storeEntry is one store in a store listing reply
type storeEntry struct {
	StoreID   flexString `json:"storeId"`
	StoreName string     `json:"storeName"`
}

// templateEntry is one template in a template listing reply
type templateEntry struct {
	ID             flexString `json:"id"`
	TemplateNumber flexString `json:"templateNumber"`
	TemplateName   string     `json:"templateName"`
	Size           string     `json:"size"`
	Resolution     string     `json:"resolution"`
	HardwareStr    string     `json:"hardwareStr"`
	ItemNum        int        `json:"itemNum"`
	TempPicURL     string     `json:"tempPicUrl"`
	IsEnable       flexBool   `json:"isEnable"`
}

// stableID prefers the explicit template id, falling back to the number
func (t *templateEntry) stableID() string {
	if t.ID != "" {
		return string(t.ID)
	}
	return string(t.TemplateNumber)
}

// ---------------------------------------------------------------------------
// Flexible field decoding
// ---------------------------------------------------------------------------

// flexString accepts a JSON string or number; the vendor is not consistent
// about which one identifier fields arrive as.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*s = ""
		return nil
	}
	if trimmed[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(trimmed)
	return nil
}

// flexBool coerces the vendor's enabled flags: real booleans, truthy
// strings ("1", "true", "yes") and nonzero numbers all count as true.
// Anything else is false; coercion never fails.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*b = false
		return nil
	}
	if trimmed[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			*b = false
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			*b = true
		default:
			*b = false
		}
		return nil
	}
	if v, err := strconv.ParseBool(trimmed); err == nil {
		*b = flexBool(v)
		return nil
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		*b = n != 0
		return nil
	}
	*b = false
	return nil
}

// ---------------------------------------------------------------------------
// Template response shape normalization
// ---------------------------------------------------------------------------

// The template endpoint has been observed replying in three shapes: a bare
// array, an array under "data", and a paginated object under
// "data"."content". Each shape gets its own decode function; the first one
// that matches wins.

type templateListDecoder func(body []byte) ([]json.RawMessage, bool)

func decodeBareList(body []byte) ([]json.RawMessage, bool) {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, false
	}
	return list, true
}

func decodeDataList(body []byte) ([]json.RawMessage, bool) {
	var wrapper struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Data == nil {
		return nil, false
	}
	return wrapper.Data, true
}

func decodeDataContentList(body []byte) ([]json.RawMessage, bool) {
	var wrapper struct {
		Data struct {
			Content []json.RawMessage `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Data.Content == nil {
		return nil, false
	}
	return wrapper.Data.Content, true
}

var templateListDecoders = []templateListDecoder{
	decodeBareList,
	decodeDataContentList,
	decodeDataList,
}

// normalizeTemplateList flattens any observed response shape into raw
// template objects. The second return value reports whether any shape
// matched at all, distinguishing "empty list" from "unrecognized reply".
func normalizeTemplateList(body []byte) ([]json.RawMessage, bool) {
	for _, decode := range templateListDecoders {
		if list, ok := decode(body); ok {
			return list, true
		}
	}
	return nil, false
}
