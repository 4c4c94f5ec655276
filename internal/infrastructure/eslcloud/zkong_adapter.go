package eslcloud

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/esl-addon/internal/domain/esl"
)

// maxResponseBytes caps how much of a vendor reply we are willing to read
const maxResponseBytes = 10 << 20

// Adapter talks to the Zkong ESL cloud over HTTP and implements the
// esl.LabelVendor port. Lightweight calls (key fetch, stores, bind, unbind)
// use a short timeout; the token exchange, template listing and item uploads
// get a longer one.
type Adapter struct {
	config      *Config
	logger      *zap.Logger
	lightClient *http.Client
	heavyClient *http.Client
}

// NewAdapter creates an adapter after validating the config
func NewAdapter(config *Config, logger *zap.Logger) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		config:      config,
		logger:      logger,
		lightClient: &http.Client{Timeout: time.Duration(config.LightTimeoutSeconds) * time.Second},
		heavyClient: &http.Client{Timeout: time.Duration(config.HeavyTimeoutSeconds) * time.Second},
	}, nil
}

// Authenticate runs the three-step handshake: fetch the RSA public key,
// encrypt the password with it, exchange the credentials for a token.
func (a *Adapter) Authenticate(ctx context.Context, username, password string) (*esl.AuthResult, error) {
	publicKey, err := a.fetchPublicKey(ctx)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptPassword(publicKey, password)
	if err != nil {
		return nil, fmt.Errorf("%w: password encryption: %v", esl.ErrAuth, err)
	}

	body, err := a.doPost(ctx, a.heavyClient, "/getToken", "", map[string]interface{}{
		"mode":     "CLOUD",
		"username": username,
		"password": encrypted,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", esl.ErrAuth, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed token reply: %v", esl.ErrAuth, err)
	}
	var payload tokenPayload
	if envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, fmt.Errorf("%w: malformed token payload: %v", esl.ErrAuth, err)
		}
	}
	if payload.Token == "" {
		msg := envelope.Message
		if msg == "" {
			msg = "no token in reply"
		}
		return nil, fmt.Errorf("%w: %s", esl.ErrAuth, msg)
	}

	a.logger.Info("vendor authentication succeeded",
		zap.String("username", username),
		zap.String("token", maskToken(payload.Token)))

	return &esl.AuthResult{
		Token:      payload.Token,
		PublicKey:  publicKey,
		AgencyID:   string(payload.CurrentUser.AgencyID),
		MerchantID: string(payload.CurrentUser.MerchantID),
	}, nil
}

// ListStores returns the stores visible to the authenticated session
func (a *Adapter) ListStores(ctx context.Context, ref esl.SessionRef) ([]esl.StoreInfo, error) {
	body, err := a.doPost(ctx, a.lightClient, "/ZK_getStoreId", ref.Token, map[string]interface{}{
		"uniqueId":   ref.UniqueID,
		"agencyId":   ref.AgencyID,
		"merchantId": ref.MerchantID,
	})
	if err != nil {
		return nil, err
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed store reply: %v", esl.ErrVendorAPI, err)
	}
	var entries []storeEntry
	if envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, &entries); err != nil {
			return nil, fmt.Errorf("%w: malformed store list: %v", esl.ErrVendorAPI, err)
		}
	}

	stores := make([]esl.StoreInfo, 0, len(entries))
	for _, e := range entries {
		if e.StoreID == "" {
			continue
		}
		stores = append(stores, esl.StoreInfo{ID: string(e.StoreID), Name: e.StoreName})
	}
	return stores, nil
}

// ListTemplates returns the label templates of the selected store. The
// endpoint replies in several shapes; all of them are normalized here.
func (a *Adapter) ListTemplates(ctx context.Context, ref esl.SessionRef) ([]esl.TemplateInfo, error) {
	body, err := a.doPost(ctx, a.heavyClient, "/ZK_getTemplate", ref.Token, map[string]interface{}{
		"uniqueId":   ref.UniqueID,
		"agencyId":   ref.AgencyID,
		"merchantId": ref.MerchantID,
		"data":       map[string]interface{}{"storeId": ref.StoreID},
	})
	if err != nil {
		return nil, err
	}

	rawList, ok := normalizeTemplateList(body)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized template reply shape", esl.ErrVendorAPI)
	}
	if len(rawList) == 0 {
		return nil, esl.ErrEmptyResult
	}

	templates := make([]esl.TemplateInfo, 0, len(rawList))
	for _, raw := range rawList {
		var entry templateEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			a.logger.Warn("skipping undecodable template entry", zap.Error(err))
			continue
		}
		id := entry.stableID()
		if id == "" {
			continue
		}
		templates = append(templates, esl.TemplateInfo{
			ID:             id,
			TemplateNumber: string(entry.TemplateNumber),
			Name:           entry.TemplateName,
			Size:           entry.Size,
			Resolution:     entry.Resolution,
			Hardware:       entry.HardwareStr,
			ItemCapacity:   entry.ItemNum,
			PreviewPath:    entry.TempPicURL,
			Enabled:        bool(entry.IsEnable),
			Raw:            string(raw),
		})
	}
	if len(templates) == 0 {
		return nil, esl.ErrEmptyResult
	}
	return templates, nil
}

// SendItems uploads one batch of catalog items
func (a *Adapter) SendItems(ctx context.Context, ref esl.SessionRef, items []esl.ExportItem) (*esl.BatchResponse, error) {
	body, err := a.doPost(ctx, a.heavyClient, "/ZK_sendItem", ref.Token, map[string]interface{}{
		"uniqueId":   ref.UniqueID,
		"agencyId":   ref.AgencyID,
		"merchantId": ref.MerchantID,
		"itemList":   items,
	})
	if err != nil {
		return nil, err
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed upload reply: %v", esl.ErrVendorAPI, err)
	}
	return &esl.BatchResponse{Message: envelope.Message}, nil
}

// BindLabel pairs one product barcode with one label
func (a *Adapter) BindLabel(ctx context.Context, ref esl.SessionRef, productCode, labelCode string) error {
	_, err := a.doPost(ctx, a.lightClient, "/ZK_bindSingleESL", ref.Token, map[string]interface{}{
		"uniqueId": ref.UniqueID,
		"storeId":  ref.StoreID,
		"product":  productCode,
		"esl":      labelCode,
	})
	return err
}

// BindLabelGroup binds a list of barcodes to one label through a template
func (a *Adapter) BindLabelGroup(ctx context.Context, ref esl.SessionRef, templateID, labelCode string, barcodes []string) error {
	_, err := a.doPost(ctx, a.lightClient, "/ZK_bindMultiESL", ref.Token, map[string]interface{}{
		"uniqueId":    ref.UniqueID,
		"storeId":     ref.StoreID,
		"templateId":  templateID,
		"productList": barcodes,
		"esl":         labelCode,
	})
	return err
}

// UnbindLabel detaches a label from whatever it is bound to
func (a *Adapter) UnbindLabel(ctx context.Context, ref esl.SessionRef, labelCode string) error {
	_, err := a.doPost(ctx, a.lightClient, "/ZK_unbindESL", ref.Token, map[string]interface{}{
		"uniqueId": ref.UniqueID,
		"storeId":  ref.StoreID,
		"esl":      labelCode,
	})
	return err
}

// fetchPublicKey retrieves the PEM public key used to encrypt the password
func (a *Adapter) fetchPublicKey(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.APIBaseURL+"/getPublicKey", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", esl.ErrKeyFetch, err)
	}

	resp, err := a.lightClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", esl.ErrKeyFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", esl.ErrKeyFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", esl.ErrKeyFetch, err)
	}

	key := extractPEMKey(body)
	if key == "" {
		return "", fmt.Errorf("%w: reply contains no PEM key", esl.ErrKeyFetch)
	}
	return key, nil
}

// extractPEMKey pulls a PEM public key from a reply that may be the bare
// key, a JSON string, or an envelope with the key in "data".
func extractPEMKey(body []byte) string {
	text := strings.TrimSpace(string(body))
	if strings.Contains(text, "-----BEGIN") {
		return text
	}

	var asString string
	if err := json.Unmarshal(body, &asString); err == nil && strings.Contains(asString, "-----BEGIN") {
		return strings.TrimSpace(asString)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		var inner string
		if err := json.Unmarshal(envelope.Data, &inner); err == nil && strings.Contains(inner, "-----BEGIN") {
			return strings.TrimSpace(inner)
		}
	}
	return ""
}

// encryptPassword RSA-encrypts the password with the vendor's public key
// and returns it base64 encoded.
func encryptPassword(publicKeyPEM, password string) (string, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return "", fmt.Errorf("invalid PEM block")
	}

	var publicKey *rsa.PublicKey
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err == nil {
		rsaKey, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return "", fmt.Errorf("not an RSA public key")
		}
		publicKey = rsaKey
	} else {
		publicKey, err = x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return "", fmt.Errorf("parse public key: %v", err)
		}
	}

	encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, publicKey, []byte(password))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// doPost sends a JSON POST and returns the raw reply body. Network failures
// map to ErrTransport, non-2xx statuses to ErrVendorAPI.
func (a *Adapter) doPost(ctx context.Context, client *http.Client, path, token string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", esl.ErrVendorAPI, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", esl.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", esl.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read reply: %v", esl.ErrTransport, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s returned status %d: %s",
			esl.ErrVendorAPI, path, resp.StatusCode, vendorMessage(body))
	}
	return body, nil
}

// vendorMessage extracts the vendor's error message from a failed reply,
// falling back to a clipped body excerpt.
func vendorMessage(body []byte) string {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > 200 {
		excerpt = excerpt[:200]
	}
	return excerpt
}

// maskToken hides all but the edges of a token for log output
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
