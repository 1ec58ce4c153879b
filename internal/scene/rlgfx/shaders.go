package rlgfx

// Both programs share the fragment stage. shading selects the lighting
// model: 0 basic, 1 lambert, 2 phong.
const (
	meshVS = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
uniform mat4 matProjection;
uniform mat4 matView;
uniform mat4 matModel;
out vec3 fragPosition;
out vec2 fragTexCoord;
out vec3 fragNormal;
void main() {
  vec4 worldPos = matModel * vec4(vertexPosition, 1.0);
  fragPosition = worldPos.xyz;
  fragTexCoord = vertexTexCoord;
  fragNormal = transpose(inverse(mat3(matModel))) * vertexNormal;
  gl_Position = matProjection * matView * worldPos;
}
`
	instancedVS = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
in mat4 instanceTransform;
uniform mat4 mvp;
out vec3 fragPosition;
out vec2 fragTexCoord;
out vec3 fragNormal;
void main() {
  vec4 worldPos = instanceTransform * vec4(vertexPosition, 1.0);
  fragPosition = worldPos.xyz;
  fragTexCoord = vertexTexCoord;
  fragNormal = transpose(inverse(mat3(instanceTransform))) * vertexNormal;
  gl_Position = mvp * worldPos;
}
`
	shadedFS = `#version 330
in vec3 fragPosition;
in vec2 fragTexCoord;
in vec3 fragNormal;
uniform sampler2D texture0;
uniform vec4 colDiffuse;
uniform vec2 uvScale;
uniform float shading;
uniform vec3 ambient;
uniform vec3 lightDir;
uniform vec3 lightColor;
uniform vec3 viewPos;
uniform vec3 specularColor;
uniform float shininess;
out vec4 finalColor;
void main() {
  vec4 base = texture(texture0, fragTexCoord * uvScale) * colDiffuse;
  if (shading < 0.5) {
    finalColor = base;
    return;
  }
  vec3 N = normalize(fragNormal);
  if (!gl_FrontFacing) N = -N;
  vec3 L = normalize(lightDir);
  float NdotL = max(dot(N, L), 0.0);
  vec3 color = base.rgb * (ambient + lightColor * NdotL);
  if (shading > 1.5 && NdotL > 0.0) {
    vec3 V = normalize(viewPos - fragPosition);
    vec3 H = normalize(L + V);
    color += specularColor * lightColor * pow(max(dot(N, H), 0.0), shininess);
  }
  finalColor = vec4(color, base.a);
}
`
)
