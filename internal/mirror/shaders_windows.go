//go:build windows

package mirror

// Shader program texts are literal build-time constants, pre-compiled once
// at program start via D3DCompile with explicit error reporting.

const hlslVertexShaderQuad = `
struct VSOut {
    float4 pos : SV_Position;
    float2 uv  : TEXCOORD0;
};

VSOut main(uint vid : SV_VertexID) {
    // Full-screen triangle-strip quad, 4 vertices, no vertex buffer needed
    // beyond the per-vertex id.
    float2 positions[4] = {
        float2(-1.0,  1.0),
        float2( 1.0,  1.0),
        float2(-1.0, -1.0),
        float2( 1.0, -1.0),
    };
    float2 uvs[4] = {
        float2(0.0, 0.0),
        float2(1.0, 0.0),
        float2(0.0, 1.0),
        float2(1.0, 1.0),
    };
    VSOut o;
    o.pos = float4(positions[vid], 0.0, 1.0);
    o.uv = uvs[vid];
    return o;
}
`

// hlslVertexShaderCursorQuad positions the cursor's 4-vertex triangle
// strip from a single NDC rectangle (top-left xy, width/height) uploaded
// per draw, rather than the full-screen quad's hardcoded corners.
const hlslVertexShaderCursorQuad = `
cbuffer CursorRect : register(b0) {
    float4 rect; // x, y: top-left NDC; z, w: width, height in NDC
};

struct VSOut {
    float4 pos : SV_Position;
    float2 uv  : TEXCOORD0;
};

VSOut main(uint vid : SV_VertexID) {
    float2 corners[4] = {
        float2(0.0, 0.0),
        float2(1.0, 0.0),
        float2(0.0, 1.0),
        float2(1.0, 1.0),
    };
    float2 uvs[4] = {
        float2(0.0, 0.0),
        float2(1.0, 0.0),
        float2(0.0, 1.0),
        float2(1.0, 1.0),
    };
    float2 c = corners[vid];
    VSOut o;
    o.pos = float4(rect.x + c.x * rect.z, rect.y - c.y * rect.w, 0.0, 1.0);
    o.uv = uvs[vid];
    return o;
}
`

const hlslPixelShaderPassthrough = `
Texture2D srcTex : register(t0);
SamplerState samp : register(s0);

float4 main(float4 pos : SV_Position, float2 uv : TEXCOORD0) : SV_Target {
    return srcTex.Sample(samp, uv);
}
`

const hlslPixelShaderLinearToSRGB = `
Texture2D srcTex : register(t0);
SamplerState samp : register(s0);

float3 srgbOETF(float3 c) {
    float3 lo = 12.92 * c;
    float3 hi = 1.055 * pow(c, 1.0/2.4) - 0.055;
    return (c <= 0.0031308) ? lo : hi;
}

float4 main(float4 pos : SV_Position, float2 uv : TEXCOORD0) : SV_Target {
    float4 c = srcTex.Sample(samp, uv);
    float3 sat = saturate(c.rgb);
    return float4(srgbOETF(sat), c.a);
}
`

// hlslPixelShaderHDRReinhard implements maxRGB Reinhard tonemapping: clamp
// negatives, scale by 80/sdrWhiteNits, compress by m/(1+m)/m == 1/(1+m)
// when m = max(r,g,b) > 1, saturate, apply sRGB OETF.
//
// The scale factor is computed once in its final form (no redundant
// intermediate assignment) rather than computed and then overwritten.
const hlslPixelShaderHDRReinhard = `
Texture2D srcTex : register(t0);
SamplerState samp : register(s0);

cbuffer TonemapParams : register(b0) {
    float sdrWhiteNits;
    float3 _pad;
};

float3 srgbOETF(float3 c) {
    float3 lo = 12.92 * c;
    float3 hi = 1.055 * pow(c, 1.0/2.4) - 0.055;
    return (c <= 0.0031308) ? lo : hi;
}

float4 main(float4 pos : SV_Position, float2 uv : TEXCOORD0) : SV_Target {
    float4 src = srcTex.Sample(samp, uv);
    float3 c = max(src.rgb, 0.0);

    float scale = 80.0 / sdrWhiteNits;
    c *= scale;

    float m = max(c.r, max(c.g, c.b));
    if (m > 1.0) {
        c *= 1.0 / (1.0 + m);
    }

    c = saturate(c);
    return float4(srgbOETF(c), src.a);
}
`
