package s3

import "testing"

func TestNewClientRequiresEndpointAndCredentials(t *testing.T) {
	if _, err := NewClient(Config{Endpoint: "  ", AccessKey: "minio", SecretKey: "minio123"}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
	if _, err := NewClient(Config{Endpoint: "localhost:9000"}); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func TestNewClientSchemeDecidesTLS(t *testing.T) {
	cases := []struct {
		endpoint string
		useSSL   bool
		host     string
		scheme   string
	}{
		{endpoint: "localhost:9000", host: "localhost:9000", scheme: "http"},
		{endpoint: "localhost:9000/", useSSL: true, host: "localhost:9000", scheme: "https"},
		{endpoint: "http://localhost:9000", useSSL: true, host: "localhost:9000", scheme: "http"},
		{endpoint: "https://slips.example.com", host: "slips.example.com", scheme: "https"},
	}
	for _, tc := range cases {
		client, err := NewClient(Config{Endpoint: tc.endpoint, UseSSL: tc.useSSL, AccessKey: "minio", SecretKey: "minio123"})
		if err != nil {
			t.Fatalf("%s: new client: %v", tc.endpoint, err)
		}
		got := client.EndpointURL()
		if got.Host != tc.host || got.Scheme != tc.scheme {
			t.Fatalf("%s: unexpected endpoint %s://%s", tc.endpoint, got.Scheme, got.Host)
		}
	}
}

func TestNewClientRejectsMalformedEndpoints(t *testing.T) {
	for _, endpoint := range []string{"ftp://localhost:9000", "http://localhost:9000/bucket", "https://"} {
		if _, err := NewClient(Config{Endpoint: endpoint, AccessKey: "minio", SecretKey: "minio123"}); err == nil {
			t.Fatalf("%s: expected error", endpoint)
		}
	}
}
