package images

// PlaceholderSVG is served at PlaceholderURL.
const PlaceholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="640" height="400" viewBox="0 0 640 400">
  <rect width="640" height="400" fill="#e5e7eb"/>
  <g fill="none" stroke="#9ca3af" stroke-width="8" stroke-linejoin="round">
    <path d="M220 220 L320 140 L420 220"/>
    <rect x="250" y="210" width="140" height="100"/>
    <rect x="300" y="250" width="40" height="60"/>
  </g>
  <text x="320" y="350" font-family="sans-serif" font-size="22" fill="#6b7280" text-anchor="middle">Imagen no disponible</text>
</svg>`
