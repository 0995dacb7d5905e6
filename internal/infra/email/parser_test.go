package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/datashield/internal/domain/analysis"
)

func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

var phishingEmail = crlf(`Return-Path: <bounce@mailer.example.net>
Authentication-Results: mx.example.com; spf=fail smtp.mailfrom=example.net; dkim=none
DKIM-Signature: v=1; a=rsa-sha256; d=example.net; s=s1; b=abc
From: "Security Team" <security@examp1e-bank.com>
To: victim@example.com
Subject: URGENT: reset your password
Date: Mon, 02 Jan 2006 15:04:05 -0700
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain; charset=utf-8

Reset now: http://bit.ly/x
--inner
Content-Type: text/html; charset=utf-8
Content-Transfer-Encoding: quoted-printable

<html><body><a href=3D"http://bit.ly/x">Reset</a>
<!-- <a href=3D"http://evil.test">x</a> -->
<a href=3D"http://bit.ly/x">again</a></body></html>
--inner--
--outer
Content-Type: application/pdf; name="invoice.pdf"
Content-Disposition: attachment; filename="invoice.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQK
--outer
Content-Type: image/png
Content-Transfer-Encoding: base64

iVBORw0KGgo=
--outer--
`)

func TestParse_MultipartPhishingEmail(t *testing.T) {
	meta, err := NewParser(zaptest.NewLogger(t)).Parse(phishingEmail)
	require.NoError(t, err)

	assert.Equal(t, `"Security Team" <security@examp1e-bank.com>`, meta.From)
	assert.Equal(t, "URGENT: reset your password", meta.Subject)
	assert.Equal(t, "2006-01-02T22:04:05Z", meta.Date)
	assert.True(t, meta.HasHTML)
	assert.Equal(t, 2, meta.AttachmentCount)
	assert.Equal(t, []string{"http://bit.ly/x", "http://evil.test"}, meta.Links)

	assert.Equal(t, "mx.example.com; spf=fail smtp.mailfrom=example.net; dkim=none", meta.SPFResult)
	assert.Equal(t, analysis.Present, meta.DKIMResult)
	assert.Equal(t, "<bounce@mailer.example.net>", meta.ReturnPath)

	assert.Equal(t, "victim@example.com", meta.Headers["to"])
	assert.Contains(t, meta.Headers, "authentication-results")
	assert.Contains(t, meta.Headers, "dkim-signature")
}

func TestParse_PlainEmailFallbacks(t *testing.T) {
	raw := "From: alice@example.com\nSubject: lunch\n\nSee you at noon.\n"

	meta, err := NewParser(zaptest.NewLogger(t)).Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", meta.From)
	assert.Equal(t, "lunch", meta.Subject)
	assert.Empty(t, meta.Date)
	assert.False(t, meta.HasHTML)
	assert.Zero(t, meta.AttachmentCount)
	assert.NotNil(t, meta.Links)
	assert.Empty(t, meta.Links)
	assert.Equal(t, analysis.NotAvailable, meta.SPFResult)
	assert.Equal(t, analysis.NotPresent, meta.DKIMResult)
	assert.Equal(t, analysis.NotAvailable, meta.ReturnPath)
}

func TestParse_HeaderLookupIsCaseInsensitive(t *testing.T) {
	raw := "FROM: a@example.com\nreturn-PATH: <b@example.com>\nDkim-Signature: v=1\nAUTHENTICATION-RESULTS: spf=pass\n\nbody\n"

	meta, err := NewParser(zaptest.NewLogger(t)).Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "a@example.com", meta.From)
	assert.Equal(t, "<b@example.com>", meta.ReturnPath)
	assert.Equal(t, analysis.Present, meta.DKIMResult)
	assert.Equal(t, "spf=pass", meta.SPFResult)
}

func TestParse_Base64HTMLBody(t *testing.T) {
	raw := crlf(`From: promo@example.org
Subject: You won
Content-Type: text/html; charset=utf-8
Content-Transfer-Encoding: base64

PGh0bWw+PGJvZHk+PGEgaHJlZj0iaHR0cHM6Ly90aW55dXJsLmNvbS94MSI+Y2xhaW08L2E+PC9ib2R5PjwvaHRtbD4=
`)

	meta, err := NewParser(zaptest.NewLogger(t)).Parse(raw)
	require.NoError(t, err)

	assert.True(t, meta.HasHTML)
	assert.Equal(t, []string{"https://tinyurl.com/x1"}, meta.Links)
}

func TestParse_EncodedWordSubject(t *testing.T) {
	raw := "From: =?UTF-8?Q?Jo=C3=A3o?= <joao@example.com>\nSubject: =?UTF-8?B?T2zDoTogZmF0dXJhIGVtIGFuZXhv?=\n\nx\n"

	meta, err := NewParser(zaptest.NewLogger(t)).Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "João <joao@example.com>", meta.From)
	assert.Equal(t, "Olá: fatura em anexo", meta.Subject)
	assert.Equal(t, "Olá: fatura em anexo", meta.Headers["subject"])
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"this is not an email at all",
		"\r\nbody without headers",
	} {
		_, err := NewParser(zaptest.NewLogger(t)).Parse(raw)
		assert.ErrorIs(t, err, analysis.ErrEmailParseFailed, "%q", raw)
	}
}

func TestExtractLinks_OverApproximates(t *testing.T) {
	assert.Equal(t, []string{"http://evil.test"},
		ExtractLinks(`<!-- <a href="http://evil.test">x</a> -->`))

	html := `<a href='https://a.example/1'>a</a><link HREF="http://b.example/style.css">
<a href="mailto:x@example.com">m</a><a href="/relative">r</a>
<template><a href = "https://hidden.example">h</a></template>`
	assert.Equal(t, []string{"https://a.example/1", "http://b.example/style.css", "https://hidden.example"},
		ExtractLinks(html))
}
