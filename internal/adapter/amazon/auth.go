package amazon

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// PA-API v5 的SigV4服务名
const serviceName = "ProductAdvertisingAPI"

// marketplaceInfo 各国家市场的接入点信息
type marketplaceInfo struct {
	Host        string // PA-API主机
	Region      string // SigV4签名区域
	Marketplace string // Marketplace参数
}

// PA-API的签名区域与市场国家并不一致（日本站签名区域是us-west-2）
var marketplaces = map[string]marketplaceInfo{
	"JP": {Host: "webservices.amazon.co.jp", Region: "us-west-2", Marketplace: "www.amazon.co.jp"},
	"US": {Host: "webservices.amazon.com", Region: "us-east-1", Marketplace: "www.amazon.com"},
	"UK": {Host: "webservices.amazon.co.uk", Region: "eu-west-1", Marketplace: "www.amazon.co.uk"},
}

// signRequest 对PA-API请求做SigV4签名
// target为操作标识（如 com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems）
func signRequest(ctx context.Context, signer *v4.Signer, req *http.Request, body []byte,
	accessKey, secretKey, region, target string) error {
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Content-Encoding", "amz-1.0")
	req.Header.Set("X-Amz-Target", target)

	payloadHash := sha256.Sum256(body)
	creds := aws.Credentials{AccessKeyID: accessKey, SecretAccessKey: secretKey}
	return signer.SignHTTP(ctx, creds, req, hex.EncodeToString(payloadHash[:]),
		serviceName, region, time.Now().UTC())
}
